package cheatengine

import (
	"fmt"
	"os"
	"testing"
	"time"
	"unsafe"

	"github.com/xyproto/memscan/internal/engcfg"
	"github.com/xyproto/memscan/internal/numeric"
	"github.com/xyproto/memscan/internal/procrw"
)

func selfAddr(buf []byte) numeric.Addr {
	return numeric.Addr(uintptr(unsafe.Pointer(&buf[0])))
}

func testConfig() engcfg.Config {
	cfg := engcfg.Default()
	cfg.Backend = procrw.ProcFile
	cfg.FreezeInterval = 10 * time.Millisecond
	return cfg
}

func TestNewEngineDefaults(t *testing.T) {
	eng, err := NewEngine(os.Getpid(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	if eng.PID() != os.Getpid() {
		t.Errorf("PID() = %d, want %d", eng.PID(), os.Getpid())
	}
	if eng.Kind() != numeric.I32 {
		t.Errorf("Kind() = %v, want I32", eng.Kind())
	}
	if eng.Endian() != numeric.EndianNative {
		t.Errorf("Endian() = %v, want native", eng.Endian())
	}
	if eng.FirstScanDone() {
		t.Errorf("FirstScanDone() = true on a fresh engine")
	}
}

func TestNewEngineRejectsBadPID(t *testing.T) {
	_, err := NewEngine(1<<30, testConfig(), nil)
	if err == nil {
		t.Fatalf("expected an error attaching to a nonexistent pid")
	}
}

func TestScanThenScanDeltaChanged(t *testing.T) {
	// The engine scans this test binary's own memory, so a scan for a common
	// value turns up incidental matches beyond the target slice (the scan's
	// own stack holds the right-hand side while the stack region is read).
	// A distinctive sentinel plus local-address filtering keeps the
	// assertions deterministic.
	const magic = 0x5eed0c77
	target := []uint32{1, 2, 3, magic, 5}
	buf := (*[20]byte)(unsafe.Pointer(&target[0]))[:]
	base := selfAddr(buf)

	eng, err := NewEngine(os.Getpid(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()
	eng.SetType(numeric.U32)

	op, err := numeric.ParseOperator("=")
	if err != nil {
		t.Fatalf("ParseOperator: %v", err)
	}
	_, _, regions, err := eng.Scan(op, fmt.Sprintf("%d", uint32(magic)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if regions == 0 {
		t.Fatalf("expected first_scan to report at least one region")
	}
	if !eng.FirstScanDone() {
		t.Fatalf("FirstScanDone() = false after first Scan")
	}

	localOffsets := func() map[int]uint64 {
		out := make(map[int]uint64)
		for _, m := range eng.List(0) {
			if off := int(m.Addr - base); off >= 0 && off < len(buf) {
				out[off] = m.Bits
			}
		}
		return out
	}

	local := localOffsets()
	if len(local) != 1 || local[12] != magic {
		t.Fatalf("local matches = %v, want {12: %#x}", local, magic)
	}

	target[3] = 999
	changedOp, _ := numeric.ParseOperator("changed")
	if _, _, err := eng.ScanDelta(changedOp); err != nil {
		t.Fatalf("ScanDelta: %v", err)
	}
	local = localOffsets()
	if len(local) != 1 || local[12] != 999 {
		t.Fatalf("local matches after changed = %v, want {12: 999}", local)
	}
}

func TestWriteAtAndReadAt(t *testing.T) {
	var slot uint32
	buf := (*[4]byte)(unsafe.Pointer(&slot))[:]
	addr := selfAddr(buf)

	eng, err := NewEngine(os.Getpid(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()
	eng.SetType(numeric.U32)

	if err := eng.WriteAt(addr, "4242"); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if slot != 4242 {
		t.Fatalf("slot = %d, want 4242", slot)
	}
	got, err := eng.ReadAt(addr)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got != "4242" {
		t.Fatalf("ReadAt = %q, want %q", got, "4242")
	}
}

func TestReadArrRawBytes(t *testing.T) {
	buf := []byte("hello!!!")
	addr := selfAddr(buf)

	eng, err := NewEngine(os.Getpid(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	got, err := eng.ReadArr(addr, 5)
	if err != nil {
		t.Fatalf("ReadArr: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("ReadArr = %q, want %q", got, "hello")
	}
}

func TestFreezeAtValAndFreezeList(t *testing.T) {
	var slot uint32 = 5
	buf := (*[4]byte)(unsafe.Pointer(&slot))[:]
	addr := selfAddr(buf)

	eng, err := NewEngine(os.Getpid(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()
	defer eng.UnfreezeAll()
	eng.SetType(numeric.U32)

	if err := eng.FreezeAtVal(addr, "777"); err != nil {
		t.Fatalf("FreezeAtVal: %v", err)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for slot != 777 && time.Now().Before(deadline) {
		slot = 1
		time.Sleep(5 * time.Millisecond)
	}
	if slot != 777 {
		t.Fatalf("frozen value not asserted: slot = %d, want 777", slot)
	}

	entries := eng.FreezeList()
	if len(entries) != 1 || entries[0].Addr != addr {
		t.Fatalf("FreezeList() = %+v, want one entry at %s", entries, addr)
	}

	eng.UnfreezeAt(addr)
	if len(eng.FreezeList()) != 0 {
		t.Fatalf("FreezeList() after UnfreezeAt = %v, want empty", eng.FreezeList())
	}
}

func TestSetTypeClearsMatchStorage(t *testing.T) {
	target := []uint32{9, 9, 9}
	buf := (*[12]byte)(unsafe.Pointer(&target[0]))[:]

	eng, err := NewEngine(os.Getpid(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()
	eng.SetType(numeric.U32)

	op, _ := numeric.ParseOperator("=")
	if _, _, _, err := eng.Scan(op, "9"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if eng.MatchCount() == 0 {
		t.Fatalf("expected at least one match before retype")
	}

	eng.SetType(numeric.U32)
	if eng.FirstScanDone() {
		t.Fatalf("FirstScanDone() = true right after retype, want false")
	}
	if eng.MatchCount() != 0 {
		t.Fatalf("MatchCount() after retype = %d, want 0", eng.MatchCount())
	}
	_ = buf
}
