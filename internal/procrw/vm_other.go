//go:build !linux
// +build !linux

package procrw

import (
	"golang.org/x/sys/unix"

	"github.com/xyproto/memscan/internal/numeric"
)

// vmTransferer has no portable equivalent outside Linux; the reference
// deployment (Android/Linux) always has process_vm_readv, but a build on
// another POSIX host degrades to "not supported" rather than failing to
// compile.
type vmTransferer struct{}

func newVMTransferer() transferer { return vmTransferer{} }

func (vmTransferer) readAt(int, numeric.Addr, []byte) (int, error) {
	return 0, unix.ENOSYS
}

func (vmTransferer) writeAt(int, numeric.Addr, []byte) (int, error) {
	return 0, unix.ENOSYS
}

func (vmTransferer) close(int) {}
