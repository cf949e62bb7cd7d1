// Package cheatengine wires the region mapper, process reader/writer,
// scanner and freezer into a single Engine fixed to one pid for one
// interactive session.
package cheatengine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xyproto/memscan/internal/engcfg"
	"github.com/xyproto/memscan/internal/freezer"
	"github.com/xyproto/memscan/internal/memlog"
	"github.com/xyproto/memscan/internal/numeric"
	"github.com/xyproto/memscan/internal/procrw"
	"github.com/xyproto/memscan/internal/region"
)

// Match is one (address, value) pair from the current scan results,
// formatted against the engine's numeric type in force.
type Match struct {
	Addr numeric.Addr
	Bits uint64
}

// Engine holds the session's mode settings (numeric type, endian mode,
// scan level) plus its scanner and freezer, fixed to one pid for the
// session's lifetime.
type Engine struct {
	pid int
	cfg engcfg.Config
	rw  *procrw.RW
	log *slog.Logger

	mu     sync.Mutex
	kind   numeric.Kind
	endian numeric.Endian
	level  numeric.ScanLevel
	scan   scannerFace

	fz *freezer.Freezer
}

// NewEngine constructs an Engine for pid, failing fast with
// memerr.ErrTargetInaccessible (via region.List) if the pid cannot be
// probed at all.
func NewEngine(pid int, cfg engcfg.Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = memlog.Discard()
	}
	if _, err := region.List(pid); err != nil {
		return nil, err
	}

	rw := procrw.New(pid, cfg.Backend)
	warn := func(format string, args ...any) { log.Warn(fmt.Sprintf(format, args...)) }

	e := &Engine{
		pid:    pid,
		cfg:    cfg,
		rw:     rw,
		log:    log,
		kind:   numeric.I32,
		endian: numeric.EndianNative,
		level:  numeric.ScanAlignedOnly,
	}
	e.scan = newScannerFace(e.kind, pid, rw, cfg.ChunkSize, warn)
	e.fz = freezer.New(pid, rw, cfg.FreezeInterval, warn)
	return e, nil
}

// PID returns the target process id.
func (e *Engine) PID() int { return e.pid }

// Close releases the engine's Process R/W resources. It does not stop
// freeze workers; call Freezer's StopAll (via UnfreezeAll) first if a
// clean shutdown is wanted.
func (e *Engine) Close() { e.rw.Close() }

// Kind returns the active numeric type.
func (e *Engine) Kind() numeric.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind
}

// SetType is the "type" command: switch the active numeric type, clearing
// match storage.
func (e *Engine) SetType(kind numeric.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kind = kind
	warn := func(format string, args ...any) { e.log.Warn(fmt.Sprintf(format, args...)) }
	e.scan = newScannerFace(kind, e.pid, e.rw, e.cfg.ChunkSize, warn)
	e.scan.SetEndian(e.endian)
	e.scan.SetScanLevel(e.level)
}

// Endian returns the active endian mode.
func (e *Engine) Endian() numeric.Endian {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endian
}

// SetEndian is the "endian" command.
func (e *Engine) SetEndian(mode numeric.Endian) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endian = mode
	e.scan.SetEndian(mode)
}

// ScanLevel returns the active scan level.
func (e *Engine) ScanLevel() numeric.ScanLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// SetScanLevel is the "scan_level" command.
func (e *Engine) SetScanLevel(level numeric.ScanLevel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = level
	e.scan.SetScanLevel(level)
}

// FirstScanDone reports whether a scan has been run since the last reset
// or retype.
func (e *Engine) FirstScanDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scan.FirstScanDone()
}

// MatchCount is the "matchcount" command.
func (e *Engine) MatchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scan.MatchCount()
}

// Scan runs scan = / > / < / != / >= / <= V: a first scan if the session
// is fresh, else a next scan against rhs. regionCount receives the number
// of scannable regions found, valid only when this call performed a first
// scan (it is 0 otherwise).
func (e *Engine) Scan(op numeric.Operator, rhs string) (count int, elapsed time.Duration, regionCount int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bits, err := numeric.ParseBits(e.kind, rhs)
	if err != nil {
		return 0, 0, 0, err
	}

	start := time.Now()
	if !e.scan.FirstScanDone() {
		count, err = e.scan.FirstScan(op, bits, func(n int) { regionCount = n })
	} else {
		count, err = e.scan.NextScan(op, bits, true)
	}
	return count, time.Since(start), regionCount, err
}

// ScanDelta runs scan changed/unchanged/increased/decreased/any: always a
// next scan with a delta operator.
func (e *Engine) ScanDelta(op numeric.Operator) (count int, elapsed time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	count, err = e.scan.NextScan(op, 0, false)
	return count, time.Since(start), err
}

// Update is the "update" command.
func (e *Engine) Update() (count int, elapsed time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	count, err = e.scan.Update()
	return count, time.Since(start), err
}

// List is the "list" command: up to max matches (0 = all), formatted
// against the active Kind. Values are returned in Decode's layout (swap
// already applied); callers that want swapped values displayed in natural
// order apply numeric.SwapBits themselves when Endian() is EndianSwapped —
// the command layer owns display formatting while Engine owns state.
func (e *Engine) List(max int) []Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Match
	e.scan.List(max, func(addr numeric.Addr, bits uint64) {
		out = append(out, Match{Addr: addr, Bits: bits})
	})
	return out
}

// WriteToMatches is the "write" command.
func (e *Engine) WriteToMatches(v string) (succeeded, failed int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bits, err := numeric.ParseBits(e.kind, v)
	if err != nil {
		return 0, 0, err
	}
	succeeded, failed = e.scan.WriteToMatches(bits)
	return succeeded, failed, nil
}

// ReadAt is the "readat" command: read one value of the active Kind at
// addr.
func (e *Engine) ReadAt(addr numeric.Addr) (string, error) {
	e.mu.Lock()
	kind, swap := e.kind, e.endian.Swap()
	e.mu.Unlock()

	buf := make([]byte, kind.Size())
	n, err := e.rw.ReadBytes(addr, buf)
	if err != nil {
		return "", err
	}
	if n < kind.Size() {
		return "", fmt.Errorf("short read at %s: got %d of %d bytes", addr, n, kind.Size())
	}
	bits := numeric.DecodeKind(kind, buf, swap)
	return numeric.FormatBits(kind, bits), nil
}

// ReadArr is the "read_arr" command: read n raw bytes at addr, never
// interpreted against the active Kind.
func (e *Engine) ReadArr(addr numeric.Addr, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := e.rw.ReadBytes(addr, buf)
	return buf[:got], err
}

// WriteAt is the "writeat" command.
func (e *Engine) WriteAt(addr numeric.Addr, v string) error {
	e.mu.Lock()
	kind, swap := e.kind, e.endian.Swap()
	e.mu.Unlock()

	bits, err := numeric.ParseBits(kind, v)
	if err != nil {
		return err
	}
	buf := numeric.EncodeKind(kind, bits, swap)
	_, err = e.rw.WriteBytes(addr, buf)
	return err
}

// FreezeAt is the "freeze_at" command.
func (e *Engine) FreezeAt(addr numeric.Addr) error {
	e.mu.Lock()
	kind, swap := e.kind, e.endian.Swap()
	e.mu.Unlock()
	return e.fz.FreezeAddr(addr, kind, swap)
}

// FreezeAtVal is the "freeze_at_val" command.
func (e *Engine) FreezeAtVal(addr numeric.Addr, v string) error {
	e.mu.Lock()
	kind, swap := e.kind, e.endian.Swap()
	e.mu.Unlock()
	bits, err := numeric.ParseBits(kind, v)
	if err != nil {
		return err
	}
	return e.fz.FreezeAddrWithVal(addr, kind, bits, swap)
}

// UnfreezeAt is the "unfreeze_at" command.
func (e *Engine) UnfreezeAt(addr numeric.Addr) { e.fz.UnfreezeAddr(addr) }

// FreezeAll is the "freeze_all" command: freeze every address currently in
// the match set at its stored value. The stored value is already in hand
// from the last scan round, so no per-address read is needed.
func (e *Engine) FreezeAll() (succeeded, failed int) {
	kind, swap := e.Kind(), e.Endian().Swap()
	for _, m := range e.List(0) {
		if err := e.fz.FreezeAddrWithVal(m.Addr, kind, m.Bits, swap); err != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

// UnfreezeAll is the "unfreeze_all" command.
func (e *Engine) UnfreezeAll() { e.fz.StopAll() }

// FreezeList is the "freeze_list" command.
func (e *Engine) FreezeList() []freezer.Entry { return e.fz.Entries() }
