// Package scanner implements the Scanner<T> state machine: first_scan
// builds Match Storage from region contents, next_scan filters it by
// re-reading memory and comparing, and update refreshes stored values
// without changing membership.
package scanner

import (
	"github.com/xyproto/memscan/internal/matchstore"
	"github.com/xyproto/memscan/internal/memerr"
	"github.com/xyproto/memscan/internal/numeric"
	"github.com/xyproto/memscan/internal/procrw"
	"github.com/xyproto/memscan/internal/region"
)

// DefaultChunkSize bounds how many bytes of a region are read in one call:
// 1 MiB.
const DefaultChunkSize = 1 << 20

// Warnf is how the scanner surfaces non-fatal, per-region/per-slot
// diagnostics (a skipped region, a partial read) to the operator's log,
// kept distinct from the frontend sink that carries command output.
type Warnf func(format string, args ...any)

// Scanner drives the scan rounds for one numeric width. cheatengine wraps
// one of these behind a non-generic facade so the "type" command can swap
// T at runtime.
type Scanner[T numeric.Numeric] struct {
	pid       int
	rw        *procrw.RW
	chunkSize int
	warn      Warnf

	store *matchstore.Store[T]

	endian        numeric.Endian
	level         numeric.ScanLevel
	firstScanDone bool
	lastOperator  numeric.Operator
	lastRHS       T
}

// New constructs a Fresh-state Scanner for pid.
func New[T numeric.Numeric](pid int, rw *procrw.RW, chunkSize int, warn Warnf) *Scanner[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Scanner[T]{
		pid:       pid,
		rw:        rw,
		chunkSize: chunkSize,
		warn:      warn,
		store:     matchstore.New[T](),
		level:     numeric.ScanAlignedOnly,
	}
}

// SetEndian sets the endian mode applied to future reads and predicates.
func (s *Scanner[T]) SetEndian(e numeric.Endian) { s.endian = e }

// Endian returns the current endian mode.
func (s *Scanner[T]) Endian() numeric.Endian { return s.endian }

// SetScanLevel sets the stride policy applied to future first_scan calls.
func (s *Scanner[T]) SetScanLevel(l numeric.ScanLevel) { s.level = l }

// ScanLevel returns the current scan level.
func (s *Scanner[T]) ScanLevel() numeric.ScanLevel { return s.level }

// FirstScanDone reports whether first_scan has run since the last reset.
func (s *Scanner[T]) FirstScanDone() bool { return s.firstScanDone }

// MatchCount returns the number of currently retained matches.
func (s *Scanner[T]) MatchCount() int { return s.store.Count() }

// List invokes fn(addr, value) for up to max matches (0 = all) in
// ascending-address, insertion-ordered-group order.
func (s *Scanner[T]) List(max int, fn func(addr numeric.Addr, val T)) {
	s.store.IterateVal(max, fn)
}

// Reset returns the scanner to the Fresh state.
func (s *Scanner[T]) Reset() {
	s.store.Reset()
	s.firstScanDone = false
}

// FirstScan discovers regions, reads each one, and keeps every slot for
// which op(value, rhs) holds.
func (s *Scanner[T]) FirstScan(op numeric.Operator, rhs T, onRegions func(n int)) (int, error) {
	regions, err := region.List(s.pid)
	if err != nil {
		return 0, err
	}
	if onRegions != nil {
		onRegions(len(regions))
	}

	s.store.Reset()
	size := numeric.SizeOf[T]()
	swap := s.endian.Swap()
	stride := s.level.Stride(size)

	for _, r := range regions {
		buf, err := s.readRegionBytes(r.Start, r.Len())
		if len(buf) < size {
			if err != nil {
				s.warn("skipping region %s-%s: %v", r.Start, r.End, err)
			}
			continue
		}
		if len(buf) < r.Len() {
			s.warn("partial read of region %s-%s: got %d of %d bytes", r.Start, r.End, len(buf), r.Len())
		}
		s.store.AddRegionSnapshot(r.Start, buf, stride, swap, func(addr numeric.Addr, v T) bool {
			return numeric.EvalValue(op, v, rhs)
		})
	}

	s.firstScanDone = true
	s.lastOperator = op
	s.lastRHS = rhs
	return s.store.Count(), nil
}

// NextScan re-reads every currently present slot and retains it iff the
// predicate holds against the fresh reading.
// hasRHS is false for the four delta operators, which compare against the
// value already stored in Match Storage instead.
func (s *Scanner[T]) NextScan(op numeric.Operator, rhs T, hasRHS bool) (int, error) {
	if !s.firstScanDone {
		return 0, memerr.ErrNoInitialScan
	}

	swap := s.endian.Swap()
	size := numeric.SizeOf[T]()

	var pred func(addr numeric.Addr, old, fresh T) bool
	if op.NeedsRHS() {
		pred = func(_ numeric.Addr, _, fresh T) bool { return numeric.EvalValue(op, fresh, rhs) }
	} else {
		pred = func(_ numeric.Addr, old, fresh T) bool { return numeric.EvalDelta(op, fresh, old) }
	}

	for _, g := range s.store.Groups() {
		if g.IsDense() {
			fresh, _ := s.readRegionBytes(g.Base(), g.ByteLen())
			g.ApplyDense(fresh, swap, pred)
			continue
		}
		g.ApplySparse(swap, func(addr numeric.Addr) (T, bool) {
			buf := make([]byte, size)
			n, err := s.rw.ReadBytes(addr, buf)
			if err != nil || n < size {
				return *new(T), false
			}
			return numeric.Decode[T](buf, swap), true
		}, pred)
	}
	s.store.Compact()

	s.lastOperator = op
	if hasRHS {
		s.lastRHS = rhs
	}
	return s.store.Count(), nil
}

// Update refreshes every stored value in place, like NextScan(any) but
// without dropping any slot: a slot that cannot be re-read keeps its old
// value. The match count is unaffected.
func (s *Scanner[T]) Update() (int, error) {
	if !s.firstScanDone {
		return 0, memerr.ErrNoInitialScan
	}
	swap := s.endian.Swap()
	size := numeric.SizeOf[T]()
	for _, g := range s.store.Groups() {
		if g.IsDense() {
			fresh, _ := s.readRegionBytes(g.Base(), g.ByteLen())
			g.RefreshDense(fresh, swap)
			continue
		}
		g.RefreshSparse(func(addr numeric.Addr) (T, bool) {
			v, n, err := procrw.ReadVal[T](s.rw, addr, swap)
			return v, err == nil && n == size
		})
	}
	return s.store.Count(), nil
}

// WriteToMatches writes v to every address currently present in the match
// store. Individual write failures are counted but never abort the sweep.
func (s *Scanner[T]) WriteToMatches(v T) (succeeded, failed int) {
	swap := s.endian.Swap()
	s.store.IterateVal(0, func(addr numeric.Addr, _ T) {
		if _, err := procrw.WriteVal(s.rw, addr, v, swap); err != nil {
			failed++
			return
		}
		succeeded++
	})
	return succeeded, failed
}

// readRegionBytes reads up to length bytes at addr, chunked at s.chunkSize,
// stopping at the first short chunk and returning whatever was successfully
// accumulated so far — a partially readable region is truncated to the
// bytes actually obtained.
func (s *Scanner[T]) readRegionBytes(addr numeric.Addr, length int) ([]byte, error) {
	if length <= 0 {
		return nil, nil
	}
	out := make([]byte, 0, length)
	var firstErr error
	for off := 0; off < length; {
		want := s.chunkSize
		if off+want > length {
			want = length - off
		}
		chunk := make([]byte, want)
		n, err := s.rw.ReadBytes(addr.Add(off), chunk)
		out = append(out, chunk[:n]...)
		if err != nil {
			firstErr = err
			break
		}
		if n < want {
			break // short read: region boundary/protection change mid-range
		}
		off += n
	}
	return out, firstErr
}
