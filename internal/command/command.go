// Package command implements the thin REPL dispatcher: one line in, one or
// more cheatengine.Engine calls out, results posted to a
// frontend.Frontend. Dispatch goes through a minimum-unambiguous-prefix
// command table; all semantics live below, in cheatengine and its
// components.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xyproto/memscan/internal/cheatengine"
	"github.com/xyproto/memscan/internal/frontend"
	"github.com/xyproto/memscan/internal/memerr"
	"github.com/xyproto/memscan/internal/numeric"
)

type cmd struct {
	name    string
	min     int // minimum number of leading characters that select this command
	process func(args []string, eng *cheatengine.Engine, out frontend.Frontend) error
}

// cmdList is checked in order; several names share a prefix (scan /
// scan_level, write / writeat, the freeze_* family), so most entries here
// require their full name — only genuinely unambiguous commands get a
// shorter min. See matchCommand.
var cmdList = []cmd{
	{name: "scan", min: 4, process: scanCmd},
	{name: "list", min: 2, process: listCmd},
	{name: "matchcount", min: 3, process: matchCountCmd},
	{name: "update", min: 2, process: updateCmd},
	{name: "write", min: 5, process: writeCmd},
	{name: "readat", min: 5, process: readAtCmd},
	{name: "read_arr", min: 5, process: readArrCmd},
	{name: "writeat", min: 7, process: writeAtCmd},
	{name: "endian", min: 2, process: endianCmd},
	{name: "scan_level", min: 5, process: scanLevelCmd},
	{name: "type", min: 2, process: typeCmd},
	{name: "freeze_at_val", min: 13, process: freezeAtValCmd},
	{name: "freeze_at", min: 9, process: freezeAtCmd},
	{name: "freeze_all", min: 10, process: freezeAllCmd},
	{name: "freeze_list", min: 11, process: freezeListCmd},
	{name: "unfreeze_at", min: 11, process: unfreezeAtCmd},
	{name: "unfreeze_all", min: 12, process: unfreezeAllCmd},
	{name: "pid", min: 2, process: pidCmd},
}

// matchCommand reports whether the operator's typed token abbreviates
// match.name: every typed character must agree with name, and the typed
// token must be at least match.min characters long. A typed token longer
// than name can never match it.
func matchCommand(match cmd, token string) bool {
	if len(token) > len(match.name) || len(token) < match.min {
		return false
	}
	return token == match.name[:len(token)]
}

func matchList(token string) []cmd {
	if token == "" {
		return nil
	}
	var out []cmd
	for _, c := range cmdList {
		if matchCommand(c, token) {
			out = append(out, c)
		}
	}
	return out
}

// ProcessCommand tokenizes line on whitespace and dispatches it against a
// live Engine, posting results through out. Recoverable, operator-visible
// conditions (no initial scan yet, freeze/read/write failures) are printed
// as warnings, not returned. Errors returned here are ErrInvalidCommand
// (unknown or ambiguous command, wrong argument count, unparsable address,
// count, operator, endian, scan-level or type argument), or an error passed
// through unwrapped from the Engine: a scan/write value that does not parse
// for the active type, or a failed scan or update.
func ProcessCommand(line string, eng *cheatengine.Engine, out frontend.Frontend) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	match := matchList(name)
	switch len(match) {
	case 0:
		return fmt.Errorf("%w: command not found: %s", memerr.ErrInvalidCommand, name)
	case 1:
		return match[0].process(args, eng, out)
	default:
		return fmt.Errorf("%w: ambiguous command: %s", memerr.ErrInvalidCommand, name)
	}
}

// CompleteCmd returns the full names of every command a typed (possibly
// partial) token could still abbreviate, for REPL tab completion.
func CompleteCmd(line string) []string {
	fields := strings.Fields(line)
	if len(fields) > 1 {
		return nil
	}
	token := ""
	if len(fields) == 1 {
		token = strings.ToLower(fields[0])
	}
	var out []string
	for _, c := range cmdList {
		if strings.HasPrefix(c.name, token) {
			out = append(out, c.name)
		}
	}
	return out
}

func parseAddr(s string) (numeric.Addr, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), hexOrDec(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid address %q: %v", memerr.ErrInvalidCommand, s, err)
	}
	return numeric.Addr(v), nil
}

func hexOrDec(s string) int {
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return 16
	}
	return 10
}

func needArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("%w: usage: %s", memerr.ErrInvalidCommand, usage)
	}
	return nil
}

// scanCmd implements scan = V / > V / ... and scan changed/unchanged/
// increased/decreased/any: time the action, then print "current matches:
// N" and "Done in: Ts", regardless of whether the predicate was value- or
// delta-based.
func scanCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "scan <op> [V]"); err != nil {
		return err
	}
	op, err := numeric.ParseOperator(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", memerr.ErrInvalidCommand, err)
	}

	var count int
	var elapsedSeconds float64
	if op.NeedsRHS() {
		if err := needArgs(args, 2, "scan <op> V"); err != nil {
			return err
		}
		n, elapsed, regions, err := eng.Scan(op, args[1])
		if err != nil {
			return err
		}
		if regions > 0 {
			out.Printf("Found %d regions to be scanned", regions)
		}
		count, elapsedSeconds = n, elapsed.Seconds()
	} else {
		if !eng.FirstScanDone() {
			out.Printf("WARN: no initial scan has been setup")
			return nil
		}
		n, elapsed, err := eng.ScanDelta(op)
		if err != nil {
			return err
		}
		count, elapsedSeconds = n, elapsed.Seconds()
	}

	out.Printf("current matches: %d", count)
	out.Printf("Done in: %f s", elapsedSeconds)
	return nil
}

// listCmd implements list [N]. Endian-swapped sessions re-swap each value
// once more before display so the printed numbers read naturally.
func listCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	max := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid count %q: %v", memerr.ErrInvalidCommand, args[0], err)
		}
		max = n
	}

	kind, swapped := eng.Kind(), eng.Endian() == numeric.EndianSwapped
	for _, m := range eng.List(max) {
		bits := m.Bits
		if swapped {
			bits = numeric.SwapBits(kind, bits)
		}
		out.Printf("0x%x %s", uint64(m.Addr), numeric.FormatBits(kind, bits))
	}
	return nil
}

func matchCountCmd(_ []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	out.Printf("%d", eng.MatchCount())
	return nil
}

func updateCmd(_ []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if !eng.FirstScanDone() {
		out.Printf("WARN: No initial scan is done")
		return nil
	}
	if _, _, err := eng.Update(); err != nil {
		return err
	}
	out.Printf("Done updating value!")
	return nil
}

// writeCmd implements write V: silent on success.
func writeCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "write V"); err != nil {
		return err
	}
	_, _, err := eng.WriteToMatches(args[0])
	return err
}

func readAtCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "readat A"); err != nil {
		return err
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	val, err := eng.ReadAt(addr)
	if err != nil {
		out.Printf("error while reading: %v", err)
		return nil
	}
	out.Printf("%s", val)
	return nil
}

// readArrCmd implements read_arr A N: a raw byte-by-byte dump, not
// interpreted against the active numeric type.
func readArrCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 2, "read_arr A N"); err != nil {
		return err
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return fmt.Errorf("%w: invalid length %q", memerr.ErrInvalidCommand, args[1])
	}

	buf, err := eng.ReadArr(addr, n)
	if err != nil {
		out.Printf("WARN: an error occured %v", err)
	}
	if len(buf) != n {
		out.Printf("WARN: cannot read %d bytes as requested", n)
		out.Printf("WARN: only read %d bytes", len(buf))
	}
	for i, b := range buf {
		out.Printf("0x%x %d", uint64(addr)+uint64(i), b)
	}
	return nil
}

func writeAtCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 2, "writeat A V"); err != nil {
		return err
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	if err := eng.WriteAt(addr, args[1]); err != nil {
		out.Printf("Error while writting at %s: %v", addr, err)
	}
	return nil
}

// endianCmd is completely silent on success.
func endianCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "endian native|swapped"); err != nil {
		return err
	}
	mode, err := numeric.ParseEndian(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", memerr.ErrInvalidCommand, err)
	}
	eng.SetEndian(mode)
	return nil
}

func scanLevelCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "scan_level aligned|all"); err != nil {
		return err
	}
	level, err := numeric.ParseScanLevel(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", memerr.ErrInvalidCommand, err)
	}
	eng.SetScanLevel(level)
	out.Printf("set scan level to %s", level)
	return nil
}

// typeCmd rejects an unrecognized numeric-type token with ErrInvalidCommand
// rather than silently keeping the old type.
func typeCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "type i8|u8|i16|u16|i32|u32|i64|u64|f32|f64"); err != nil {
		return err
	}
	kind, err := numeric.ParseKind(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", memerr.ErrInvalidCommand, err)
	}
	eng.SetType(kind)
	out.Printf("set num type to %s", kind)
	return nil
}

func freezeAtCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "freeze_at A"); err != nil {
		return err
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	if err := eng.FreezeAt(addr); err != nil {
		out.Printf("Fail to freeze address %d", int64(addr))
	}
	return nil
}

func freezeAtValCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 2, "freeze_at_val A V"); err != nil {
		return err
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	if err := eng.FreezeAtVal(addr, args[1]); err != nil {
		out.Printf("Fail to freeze address %d", int64(addr))
	}
	return nil
}

func unfreezeAtCmd(args []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if err := needArgs(args, 1, "unfreeze_at A"); err != nil {
		return err
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	eng.UnfreezeAt(addr)
	return nil
}

// freezeAllCmd freezes every current match at its already-known value,
// then prints a fixed confirmation line regardless of how many addresses
// actually froze successfully. Before an initial scan there is nothing to
// freeze: warn and no-op.
func freezeAllCmd(_ []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	if !eng.FirstScanDone() {
		out.Printf("WARN: no initial scan has been setup")
		return nil
	}
	eng.FreezeAll()
	out.Printf("freezed all scan's result")
	return nil
}

func unfreezeAllCmd(_ []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	eng.UnfreezeAll()
	out.Printf("all previously freezed value stopped")
	return nil
}

// freezeListCmd prints each frozen address followed by a 26-character "="
// separator line.
func freezeListCmd(_ []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	const separator = "=========================="
	for _, e := range eng.FreezeList() {
		out.Printf("0x%x", uint64(e.Addr))
		out.Printf("%s", separator)
	}
	return nil
}

func pidCmd(_ []string, eng *cheatengine.Engine, out frontend.Frontend) error {
	out.Printf("%d", eng.PID())
	return nil
}
