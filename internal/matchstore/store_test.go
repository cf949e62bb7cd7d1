package matchstore

import (
	"encoding/binary"
	"testing"

	"github.com/xyproto/memscan/internal/numeric"
)

func u32Bytes(vals ...uint32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

func TestAddRegionSnapshotAlignedFirstScan(t *testing.T) {
	s := New[uint32]()
	buf := u32Bytes(1, 2, 3, 666, 5, 666, 7, 666)
	s.AddRegionSnapshot(0x10000000, buf, 4, false, func(_ numeric.Addr, v uint32) bool {
		return v == 666
	})

	if got := s.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}

	var addrs []numeric.Addr
	s.IterateVal(0, func(addr numeric.Addr, val uint32) {
		if val != 666 {
			t.Errorf("unexpected value %d at %s", val, addr)
		}
		addrs = append(addrs, addr)
	})
	want := []numeric.Addr{0x1000000c, 0x10000014, 0x1000001c}
	if len(addrs) != len(want) {
		t.Fatalf("got %d addrs, want %d", len(addrs), len(want))
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %s, want %s", i, addrs[i], want[i])
		}
	}
}

func TestApplyDenseFilterChanged(t *testing.T) {
	s := New[uint32]()
	buf := u32Bytes(1, 2, 3, 666, 5, 666, 7, 666)
	s.AddRegionSnapshot(0x10000000, buf, 4, false, func(_ numeric.Addr, v uint32) bool {
		return v == 666
	})

	// index 3 (addr 0x1000000c) mutates to 42; the other two stay 666.
	fresh := u32Bytes(1, 2, 3, 42, 5, 666, 7, 666)
	g := s.Groups()[0]
	g.ApplyDense(fresh, false, func(_ numeric.Addr, old, newVal uint32) bool {
		return old != newVal // "changed"
	})
	s.Compact()

	if got := s.Count(); got != 1 {
		t.Fatalf("Count() after changed-filter = %d, want 1", got)
	}
	s.IterateVal(0, func(addr numeric.Addr, val uint32) {
		if addr != 0x1000000c {
			t.Errorf("surviving address = %s, want 0x1000000c", addr)
		}
		if val != 42 {
			t.Errorf("surviving value = %d, want 42 (replaced by fresh reading)", val)
		}
	})
}

func TestEndianSwappedI16Scan(t *testing.T) {
	s := New[int16]()
	// {0x0102, 0x0304, 0x0506, 0x0708} stored little-endian in memory.
	buf := []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}
	s.AddRegionSnapshot(0x2000, buf, 2, true, func(_ numeric.Addr, v int16) bool {
		return v == 0x0201
	})
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
	s.IterateVal(0, func(addr numeric.Addr, _ int16) {
		if addr != 0x2000 {
			t.Errorf("match address = %s, want 0x2000 (first element)", addr)
		}
	})
}

func TestByteLevelScanU8(t *testing.T) {
	s := New[uint8]()
	buf := []byte("ABABAB")
	s.AddRegionSnapshot(0x3000, buf, 1, false, func(_ numeric.Addr, v uint8) bool {
		return v == 'B'
	})
	if s.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", s.Count())
	}
	var offsets []int
	s.IterateVal(0, func(addr numeric.Addr, _ uint8) {
		offsets = append(offsets, int(addr-0x3000))
	})
	want := []int{1, 3, 5}
	for i, w := range want {
		if offsets[i] != w {
			t.Errorf("offsets[%d] = %d, want %d", i, offsets[i], w)
		}
	}
}

func TestDenseToSparseCompaction(t *testing.T) {
	s := New[uint8]()
	buf := make([]byte, 64)
	buf[0] = 1
	s.AddRegionSnapshot(0x4000, buf, 1, false, func(_ numeric.Addr, v uint8) bool {
		return v == 1 || v == 0
	})
	// Everything matches (v==0 or v==1): still dense (100% present).
	g := s.Groups()[0]
	if !g.IsDense() {
		t.Fatalf("group should still be dense at 100%% present")
	}

	// Filter down to 1 of 64 (~1.5%), below the 12.5% threshold.
	fresh := make([]byte, 64)
	fresh[0] = 1
	g.ApplyDense(fresh, false, func(addr numeric.Addr, _, newVal uint8) bool {
		return addr == 0x4000
	})
	if g.IsDense() {
		t.Fatalf("group should have converted to sparse after heavy filtering")
	}
	if g.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", g.Count())
	}
}

func TestIterateValRespectsMax(t *testing.T) {
	s := New[uint32]()
	buf := u32Bytes(9, 9, 9, 9)
	s.AddRegionSnapshot(0x5000, buf, 4, false, func(_ numeric.Addr, v uint32) bool { return v == 9 })

	count := 0
	s.IterateVal(2, func(numeric.Addr, uint32) { count++ })
	if count != 2 {
		t.Fatalf("IterateVal with max=2 invoked fn %d times, want 2", count)
	}
}

func TestUnmappedRegionDroppedOnNextScan(t *testing.T) {
	s := New[uint32]()
	buf := u32Bytes(5, 5, 5)
	s.AddRegionSnapshot(0x6000, buf, 4, false, func(_ numeric.Addr, v uint32) bool { return v == 5 })

	if s.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", s.Count())
	}

	g := s.Groups()[0]
	// Simulate the region having been unmapped: fresh bytes come back
	// shorter than the group's footprint.
	g.ApplyDense([]byte{}, false, func(numeric.Addr, uint32, uint32) bool { return true })
	s.Compact()

	if s.Count() != 0 {
		t.Fatalf("Count() after region unmapped = %d, want 0", s.Count())
	}
	if len(s.Groups()) != 0 {
		t.Fatalf("expected empty group to be compacted away")
	}
}
