// Package region implements the region mapper: it parses /proc/<pid>/maps
// and yields the subset of mappings the scanner is allowed to touch.
package region

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/memscan/internal/memerr"
	"github.com/xyproto/memscan/internal/numeric"
)

// Region is one scannable mapping of the target process's address space.
type Region struct {
	Start numeric.Addr
	End   numeric.Addr
	Perms string // e.g. "rw-p"
	Inode uint64
	Path  string
}

// Len returns the byte length of the mapping.
func (r Region) Len() int {
	return int(r.End - r.Start)
}

// Readable reports whether the mapping's permission bits allow reading.
func (r Region) Readable() bool {
	return strings.HasPrefix(r.Perms, "r")
}

func (r Region) writable() bool {
	return len(r.Perms) > 1 && r.Perms[1] == 'w'
}

// special mapping names that are never worth scanning: vvar/vsyscall carry
// kernel-mapped read-only data that is never a live game/process value, and
// reading vsyscall on some kernels is itself disallowed.
var specialNames = map[string]bool{
	"[vvar]":     true,
	"[vsyscall]": true,
}

// scannable reports whether the mapping is worth scanning at all: readable,
// not special, and either anonymous/heap/stack or a writable file-backed
// mapping.
func (r Region) scannable() bool {
	if !r.Readable() {
		return false
	}
	if specialNames[r.Path] {
		return false
	}
	anonOrStackOrHeap := r.Path == "" || r.Path == "[heap]" || strings.HasPrefix(r.Path, "[stack")
	if anonOrStackOrHeap {
		return true
	}
	// File-backed: only worth scanning if the mapping itself is writable
	// (read-only file-backed mappings are program text/rodata, never a
	// live value the operator is trying to cheat).
	return r.writable()
}

// List parses /proc/<pid>/maps and returns only the scannable regions, in
// the file's natural (ascending) order.
func List(pid int) ([]Region, error) {
	path := fmt.Sprintf("/proc/%d/maps", pid)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", memerr.ErrTargetInaccessible, path, err)
	}
	defer f.Close()

	var out []Region
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		r, ok, err := parseLine(sc.Text())
		if err != nil {
			continue // malformed line: skip rather than fail the whole scan
		}
		if ok && r.scannable() {
			out = append(out, r)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", memerr.ErrTargetInaccessible, path, err)
	}
	return out, nil
}

// parseLine parses one "start-end perms offset dev inode pathname" line.
func parseLine(line string) (Region, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Region{}, false, fmt.Errorf("short maps line: %q", line)
	}

	addrRange := strings.SplitN(fields[0], "-", 2)
	if len(addrRange) != 2 {
		return Region{}, false, fmt.Errorf("bad address range: %q", fields[0])
	}
	start, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return Region{}, false, err
	}
	end, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil {
		return Region{}, false, err
	}

	inode, _ := strconv.ParseUint(fields[4], 10, 64)

	path := ""
	if len(fields) >= 6 {
		path = strings.Join(fields[5:], " ")
	}

	return Region{
		Start: numeric.Addr(start),
		End:   numeric.Addr(end),
		Perms: fields[1],
		Inode: inode,
		Path:  path,
	}, true, nil
}
