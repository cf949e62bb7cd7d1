package procrw

import (
	"fmt"
	"os"
	"sync"

	"github.com/xyproto/memscan/internal/numeric"
)

// procFileTransferer is the portable fallback backend: it opens
// /proc/<pid>/mem and does a seek+read or seek+write, caching the
// descriptor across calls and closing it when the target is detected gone.
type procFileTransferer struct {
	mu sync.Mutex
	f  *os.File
	// pid the cached descriptor belongs to, so a stale fd from a reused
	// pid is never reused across an attach/detach cycle.
	pid int
}

func newProcFileTransferer() transferer { return &procFileTransferer{} }

func (p *procFileTransferer) ensure(pid int) (*os.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.f != nil && p.pid == pid {
		return p.f, nil
	}
	if p.f != nil {
		p.f.Close()
		p.f = nil
	}
	f, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDWR, 0)
	if err != nil {
		// Retry read-only: some targets deny write access to their own
		// /proc/<pid>/mem while still permitting reads.
		f, err = os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
	}
	p.f = f
	p.pid = pid
	return f, nil
}

func (p *procFileTransferer) readAt(pid int, addr numeric.Addr, buf []byte) (int, error) {
	f, err := p.ensure(pid)
	if err != nil {
		return 0, err
	}
	n, err := f.ReadAt(buf, int64(addr))
	if n > 0 {
		// A short read at EOF/unmapped boundary is a partial transfer,
		// not a systemic failure; only report err upward when nothing
		// came back at all.
		return n, nil
	}
	return n, err
}

func (p *procFileTransferer) writeAt(pid int, addr numeric.Addr, buf []byte) (int, error) {
	f, err := p.ensure(pid)
	if err != nil {
		return 0, err
	}
	n, err := f.WriteAt(buf, int64(addr))
	if n > 0 {
		return n, nil
	}
	return n, err
}

func (p *procFileTransferer) close(pid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.f != nil && p.pid == pid {
		p.f.Close()
		p.f = nil
	}
}
