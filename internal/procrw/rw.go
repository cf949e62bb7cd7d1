package procrw

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/xyproto/memscan/internal/memerr"
	"github.com/xyproto/memscan/internal/numeric"
)

// transferer is the interface each backend implements: a single attempt at
// reading or writing len(buf) bytes at addr in pid, returning the number of
// bytes actually transferred. A transferer never classifies partial
// transfers as an error: a short transfer is legal partial success.
type transferer interface {
	readAt(pid int, addr numeric.Addr, buf []byte) (int, error)
	writeAt(pid int, addr numeric.Addr, buf []byte) (int, error)
	close(pid int)
}

// RW is the Process R/W component for one target pid. It owns whichever
// backend state needs caching (the proc-file backend's open descriptor)
// and implements the Auto fallback policy.
type RW struct {
	pid     int
	backend Backend

	mu     sync.Mutex
	vm     transferer
	procfs transferer
}

// New constructs a Process R/W handle for pid using the requested backend
// policy. It does not itself probe the target; the first Read/Write call
// will surface ErrTargetInaccessible if pid cannot be reached at all.
func New(pid int, backend Backend) *RW {
	return &RW{
		pid:     pid,
		backend: backend,
		vm:      newVMTransferer(),
		procfs:  newProcFileTransferer(),
	}
}

// Close releases any cached descriptors (the proc-file backend's fd).
func (rw *RW) Close() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.vm.close(rw.pid)
	rw.procfs.close(rw.pid)
}

// ReadBytes reads up to len(buf) bytes at addr into buf, returning the
// number of bytes actually transferred. A short return is not an error by
// itself; err is only non-nil on systemic failure (process gone, access
// denied outright).
func (rw *RW) ReadBytes(addr numeric.Addr, buf []byte) (int, error) {
	return rw.transfer(addr, buf, (transferer).readAt)
}

// WriteBytes writes len(buf) bytes at addr, returning the number of bytes
// actually transferred.
func (rw *RW) WriteBytes(addr numeric.Addr, buf []byte) (int, error) {
	return rw.transfer(addr, buf, (transferer).writeAt)
}

type transferFunc func(transferer, int, numeric.Addr, []byte) (int, error)

func (rw *RW) transfer(addr numeric.Addr, buf []byte, do transferFunc) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	switch rw.backend {
	case VectoredSyscall:
		return rw.classify(do(rw.vm, rw.pid, addr, buf))
	case ProcFile:
		return rw.classify(do(rw.procfs, rw.pid, addr, buf))
	default: // Auto
		n, err := do(rw.vm, rw.pid, addr, buf)
		if err == nil {
			return n, nil
		}
		if !permissionLike(err) {
			return rw.classify(n, err)
		}
		// Vectored syscall denied (e.g. hardened seccomp profile): fall
		// back to /proc/<pid>/mem.
		return rw.classify(do(rw.procfs, rw.pid, addr, buf))
	}
}

// classify turns a systemic failure (0 bytes transferred, real errno) into
// a wrapped memerr sentinel; partial transfers (n > 0) are never errors.
// A target detected gone also closes the proc-file backend's cached fd.
func (rw *RW) classify(n int, err error) (int, error) {
	if err == nil || n > 0 {
		return n, nil
	}
	switch {
	case errors.Is(err, unix.ESRCH), errors.Is(err, unix.ENOENT):
		rw.procfs.close(rw.pid)
		return 0, fmt.Errorf("%w: pid %d: %v", memerr.ErrTargetInaccessible, rw.pid, err)
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return 0, fmt.Errorf("%w: pid %d: %v", memerr.ErrPermissionDenied, rw.pid, err)
	default:
		return 0, fmt.Errorf("%w: pid %d: %v", memerr.ErrPartialTransfer, rw.pid, err)
	}
}

func permissionLike(err error) bool {
	return errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) || errors.Is(err, unix.ENOSYS)
}

// ReadVal is a convenience over ReadBytes with len = sizeof(T). If fewer
// bytes come back than requested the value is undefined (zero bytes past
// the short read); the call still completes and the caller consults the
// returned length and error.
func ReadVal[T numeric.Numeric](rw *RW, addr numeric.Addr, swap bool) (T, int, error) {
	n := numeric.SizeOf[T]()
	buf := make([]byte, n)
	got, err := rw.ReadBytes(addr, buf)
	if err != nil {
		var zero T
		return zero, got, err
	}
	return numeric.Decode[T](buf, swap), got, nil
}

// WriteVal is the symmetric convenience over WriteBytes.
func WriteVal[T numeric.Numeric](rw *RW, addr numeric.Addr, v T, swap bool) (int, error) {
	return rw.WriteBytes(addr, numeric.Encode(v, swap))
}
