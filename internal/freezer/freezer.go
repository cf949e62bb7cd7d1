// Package freezer maintains an ordered mapping from address to freeze
// entry, each entry owning a goroutine that periodically re-writes a fixed
// value back to its address.
//
// A FreezeEntry's numeric_type can differ address to address within the
// same session (an operator may freeze a u32 health value and an f32 speed
// value at the same time), so unlike Scanner/Match Storage this package is
// deliberately non-generic: each entry carries its own pre-encoded byte
// payload and numeric.Kind rather than being parameterised by T.
package freezer

import (
	"sort"
	"sync"
	"time"

	"github.com/xyproto/memscan/internal/memerr"
	"github.com/xyproto/memscan/internal/numeric"
	"github.com/xyproto/memscan/internal/procrw"
)

// DefaultInterval is the default freeze tick: 50ms.
const DefaultInterval = 50 * time.Millisecond

// maxConsecutiveFailures bounds how many back-to-back write failures a
// worker tolerates before giving up on its address and removing itself.
const maxConsecutiveFailures = 5

// Warnf surfaces non-fatal diagnostics (a worker giving up) to the
// operator's log, kept distinct from the Frontend command-output sink.
type Warnf func(format string, args ...any)

// Entry is a read-only snapshot of one FreezeEntry, returned by Entries.
type Entry struct {
	Addr numeric.Addr
	Kind numeric.Kind
	// Bits holds the raw numeric bits currently being written, in the
	// representation numeric.DecodeKind/EncodeKind use (native byte
	// order, pre-swap).
	Bits uint64
}

type liveEntry struct {
	addr numeric.Addr
	kind numeric.Kind
	bits uint64
	raw  []byte // pre-encoded payload actually written on each tick
	stop chan struct{}
	done chan struct{}
}

// Freezer holds the set of currently-frozen addresses for one pid.
type Freezer struct {
	pid      int
	rw       *procrw.RW
	interval time.Duration
	warn     Warnf

	mu      sync.Mutex
	entries map[numeric.Addr]*liveEntry
}

// New constructs a Freezer. interval <= 0 uses DefaultInterval.
func New(pid int, rw *procrw.RW, interval time.Duration, warn Warnf) *Freezer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Freezer{
		pid:      pid,
		rw:       rw,
		interval: interval,
		warn:     warn,
		entries:  make(map[numeric.Addr]*liveEntry),
	}
}

// FreezeAddr freezes addr at whatever value it currently holds. If addr is
// already frozen this is a no-op success. Otherwise the current value is
// read once and a worker starts re-writing it.
func (f *Freezer) FreezeAddr(addr numeric.Addr, kind numeric.Kind, swap bool) error {
	f.mu.Lock()
	if _, ok := f.entries[addr]; ok {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	buf := make([]byte, kind.Size())
	n, err := f.rw.ReadBytes(addr, buf)
	if err != nil || n < kind.Size() {
		if err == nil {
			err = memerr.ErrPartialTransfer
		}
		return err
	}
	bits := numeric.DecodeKind(kind, buf, swap)
	return f.start(addr, kind, bits, swap)
}

// FreezeAddrWithVal is FreezeAddr without the initial read: bits is frozen
// immediately.
func (f *Freezer) FreezeAddrWithVal(addr numeric.Addr, kind numeric.Kind, bits uint64, swap bool) error {
	f.mu.Lock()
	if _, ok := f.entries[addr]; ok {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()
	return f.start(addr, kind, bits, swap)
}

func (f *Freezer) start(addr numeric.Addr, kind numeric.Kind, bits uint64, swap bool) error {
	e := &liveEntry{
		addr: addr,
		kind: kind,
		bits: bits,
		raw:  numeric.EncodeKind(kind, bits, swap),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	f.mu.Lock()
	if _, ok := f.entries[addr]; ok {
		f.mu.Unlock()
		return nil // lost a race with a concurrent FreezeAddr for the same addr
	}
	f.entries[addr] = e
	f.mu.Unlock()

	go f.run(e)
	return nil
}

// run is the per-address worker: one goroutine, one address, no mutable
// state shared with any other worker.
func (f *Freezer) run(e *liveEntry) {
	defer close(e.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if _, err := f.rw.WriteBytes(e.addr, e.raw); err != nil {
				failures++
				if failures >= maxConsecutiveFailures {
					f.warn("freeze worker for %s giving up after %d failed writes: %v", e.addr, failures, memerr.ErrFreezeFailure)
					f.drop(e)
					return
				}
				continue
			}
			failures = 0
		}
	}
}

// drop removes a worker's own entry from the map after it gives up. The
// identity check guards against an UnfreezeAddr+FreezeAddr cycle having
// already replaced the entry for this address with a fresh one: that newer
// entry must stay.
func (f *Freezer) drop(e *liveEntry) {
	f.mu.Lock()
	if f.entries[e.addr] == e {
		delete(f.entries, e.addr)
	}
	f.mu.Unlock()
}

// UnfreezeAddr signals addr's worker to stop, waits for it to exit, then
// removes the entry. A no-op if addr is not frozen.
func (f *Freezer) UnfreezeAddr(addr numeric.Addr) {
	f.mu.Lock()
	e, ok := f.entries[addr]
	if ok {
		delete(f.entries, addr)
	}
	f.mu.Unlock()
	if !ok {
		return
	}
	close(e.stop)
	<-e.done
}

// StopAll signals every worker, waits for all of them, and clears the map.
// Safe to call from a signal handler during shutdown.
func (f *Freezer) StopAll() {
	f.mu.Lock()
	live := make([]*liveEntry, 0, len(f.entries))
	for _, e := range f.entries {
		live = append(live, e)
	}
	f.entries = make(map[numeric.Addr]*liveEntry)
	f.mu.Unlock()

	for _, e := range live {
		close(e.stop)
	}
	for _, e := range live {
		<-e.done
	}
}

// Count returns the number of currently-frozen addresses.
func (f *Freezer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Entries returns a read-only, address-ascending snapshot of the current
// freeze set.
func (f *Freezer) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, Entry{Addr: e.addr, Kind: e.kind, Bits: e.bits})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
