// Package numeric holds the primitive vocabulary the rest of the cheat
// engine core is built on: addresses, the ten scannable numeric widths, the
// operators a scan predicate can use, and the byte codec that turns raw
// target memory into one of those widths under a chosen endian mode.
//
// Addresses get their own named type so a byte count is never passed where
// an address was expected, or vice versa.
package numeric

import "fmt"

// Addr is a virtual address inside the target process. It is always wide
// enough to hold a 64-bit pointer regardless of host word size.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// Add returns the address offset by n bytes.
func (a Addr) Add(n int) Addr {
	return Addr(int64(a) + int64(n))
}
