// Package matchstore holds the scanner's surviving candidates: a compact,
// insertion-ordered sequence of per-region snapshots, each holding the
// addresses and last-observed values the scanner has retained.
//
// A group starts as a dense buffer (one slot per candidate offset, so
// memory stays proportional to region size until the first filter) and
// converts to a sparse list of surviving (offset, value) pairs once fewer
// than 12.5% of its slots remain.
package matchstore

import (
	"github.com/xyproto/memscan/internal/numeric"
)

// sparseThreshold: a group converts from dense to sparse once its present
// fraction drops below this value.
const sparseThreshold = 0.125

// Group is one region's worth of retained candidates.
type Group[T numeric.Numeric] struct {
	base     numeric.Addr
	stride   int
	numSlots int

	dense   []T
	present []bool
	count   int

	sparse   []sparseEntry[T]
	isSparse bool
}

type sparseEntry[T numeric.Numeric] struct {
	offset int
	value  T
}

// Base returns the region's starting address.
func (g *Group[T]) Base() numeric.Addr { return g.base }

// Stride returns the byte step between successive candidate slots.
func (g *Group[T]) Stride() int { return g.stride }

// NumSlots returns the number of candidate offsets the group was built
// with (its original region footprint under the scan level in force).
func (g *Group[T]) NumSlots() int { return g.numSlots }

// ByteLen returns the byte span of the region the group covers end to end,
// used by the scanner to size a single contiguous re-read.
func (g *Group[T]) ByteLen() int {
	if g.numSlots == 0 {
		return 0
	}
	return (g.numSlots-1)*g.stride + numeric.SizeOf[T]()
}

// Count returns the number of present slots in this group.
func (g *Group[T]) Count() int { return g.count }

// IsDense reports whether the group still uses its original dense layout.
func (g *Group[T]) IsDense() bool { return !g.isSparse }

func newGroup[T numeric.Numeric](base numeric.Addr, stride, numSlots int) *Group[T] {
	return &Group[T]{
		base:     base,
		stride:   stride,
		numSlots: numSlots,
		dense:    make([]T, numSlots),
		present:  make([]bool, numSlots),
	}
}

// buildFromBytes decodes every candidate slot in buf and marks it present
// iff keep(addr, value) holds — the first-scan build path.
func buildFromBytes[T numeric.Numeric](base numeric.Addr, buf []byte, stride int, swap bool, keep func(addr numeric.Addr, val T) bool) *Group[T] {
	size := numeric.SizeOf[T]()
	if size == 0 || len(buf) < size {
		return newGroup[T](base, stride, 0)
	}
	numSlots := (len(buf)-size)/stride + 1
	g := newGroup[T](base, stride, numSlots)
	for i := 0; i < numSlots; i++ {
		off := i * stride
		v := numeric.Decode[T](buf[off:off+size], swap)
		addr := base.Add(off)
		if keep(addr, v) {
			g.dense[i] = v
			g.present[i] = true
			g.count++
		}
	}
	g.maybeCompact()
	return g
}

// ForEachPresent invokes fn(addr, value, slotIndex) for every present slot
// in ascending address order.
func (g *Group[T]) ForEachPresent(fn func(addr numeric.Addr, val T, slot int)) {
	if g.isSparse {
		for _, e := range g.sparse {
			fn(g.base.Add(e.offset), e.value, e.offset/g.stride)
		}
		return
	}
	for i, ok := range g.present {
		if ok {
			fn(g.base.Add(i*g.stride), g.dense[i], i)
		}
	}
}

// ApplyDense re-decodes freshBytes (a contiguous re-read of exactly
// ByteLen() bytes starting at Base()) at each present slot, applies pred to
// decide whether to retain it, and replaces the stored value with the fresh
// reading for every retained slot. Only valid while IsDense().
func (g *Group[T]) ApplyDense(freshBytes []byte, swap bool, pred func(addr numeric.Addr, old, fresh T) bool) {
	size := numeric.SizeOf[T]()
	for i, ok := range g.present {
		if !ok {
			continue
		}
		off := i * g.stride
		if off+size > len(freshBytes) {
			// Region shrank or was partially unmapped since the first
			// scan: the slot no longer matches, drop it silently.
			g.present[i] = false
			g.count--
			continue
		}
		fresh := numeric.Decode[T](freshBytes[off:off+size], swap)
		old := g.dense[i]
		if pred(g.base.Add(off), old, fresh) {
			g.dense[i] = fresh
		} else {
			g.present[i] = false
			g.count--
		}
	}
	g.maybeCompact()
}

// ApplySparse re-reads each surviving slot individually via readOne, which
// returns ok=false when the address is no longer accessible (its region
// was unmapped) — such a slot is dropped silently. Only valid once
// !IsDense().
func (g *Group[T]) ApplySparse(swap bool, readOne func(addr numeric.Addr) (T, bool), pred func(addr numeric.Addr, old, fresh T) bool) {
	kept := g.sparse[:0]
	for _, e := range g.sparse {
		addr := g.base.Add(e.offset)
		fresh, ok := readOne(addr)
		if !ok {
			continue
		}
		if pred(addr, e.value, fresh) {
			kept = append(kept, sparseEntry[T]{offset: e.offset, value: fresh})
		}
	}
	g.sparse = kept
	g.count = len(kept)
}

// RefreshDense overwrites every present slot's stored value from freshBytes
// without removing any slot — the update()/"any" path.
func (g *Group[T]) RefreshDense(freshBytes []byte, swap bool) {
	size := numeric.SizeOf[T]()
	for i, ok := range g.present {
		if !ok {
			continue
		}
		off := i * g.stride
		if off+size > len(freshBytes) {
			continue
		}
		g.dense[i] = numeric.Decode[T](freshBytes[off:off+size], swap)
	}
}

// RefreshSparse is RefreshDense's sparse-layout counterpart.
func (g *Group[T]) RefreshSparse(readOne func(addr numeric.Addr) (T, bool)) {
	for i := range g.sparse {
		if fresh, ok := readOne(g.base.Add(g.sparse[i].offset)); ok {
			g.sparse[i].value = fresh
		}
	}
}

func (g *Group[T]) maybeCompact() {
	if g.isSparse || g.numSlots == 0 {
		return
	}
	if float64(g.count)/float64(g.numSlots) >= sparseThreshold {
		return
	}
	sparse := make([]sparseEntry[T], 0, g.count)
	for i, ok := range g.present {
		if ok {
			sparse = append(sparse, sparseEntry[T]{offset: i * g.stride, value: g.dense[i]})
		}
	}
	g.sparse = sparse
	g.dense = nil
	g.present = nil
	g.isSparse = true
}

// Store is the Match Storage<T> for one scanner session: an ordered
// sequence of region groups.
type Store[T numeric.Numeric] struct {
	groups []*Group[T]
}

// New returns an empty Match Storage.
func New[T numeric.Numeric]() *Store[T] {
	return &Store[T]{}
}

// AddRegionSnapshot appends a new group built from one region's bytes,
// keeping only the slots for which keep(addr, value) holds. Filtering
// happens at build time since a first scan always has a predicate in hand.
func (s *Store[T]) AddRegionSnapshot(base numeric.Addr, bytes []byte, stride int, swap bool, keep func(addr numeric.Addr, val T) bool) {
	g := buildFromBytes(base, bytes, stride, swap, keep)
	if g.count > 0 {
		s.groups = append(s.groups, g)
	}
}

// Groups returns the groups in insertion order, for the scanner to drive
// its batched re-read/filter pass.
func (s *Store[T]) Groups() []*Group[T] {
	return s.groups
}

// Count returns get_matches_count(): the number of present slots across
// all groups.
func (s *Store[T]) Count() int {
	n := 0
	for _, g := range s.groups {
		n += g.count
	}
	return n
}

// IterateVal invokes fn(addr, value) in ascending address order within
// each group, groups in insertion order, up to max entries (0 means no
// limit).
func (s *Store[T]) IterateVal(max int, fn func(addr numeric.Addr, val T)) {
	seen := 0
	for _, g := range s.groups {
		g.ForEachPresent(func(addr numeric.Addr, val T, _ int) {
			if max > 0 && seen >= max {
				return
			}
			fn(addr, val)
			seen++
		})
		if max > 0 && seen >= max {
			return
		}
	}
}

// Compact drops any group left with zero present slots after a filter
// pass, keeping Groups() free of dead weight.
func (s *Store[T]) Compact() {
	kept := s.groups[:0]
	for _, g := range s.groups {
		if g.count > 0 {
			kept = append(kept, g)
		}
	}
	s.groups = kept
}

// Reset clears all groups, returning the store to its Fresh-state shape.
func (s *Store[T]) Reset() {
	s.groups = nil
}
