package numeric

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Numeric constrains the ten Go types the scanner ever instantiates over.
// Width and signedness (or float layout) fully determine byte layout and
// comparison rules.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// SizeOf returns sizeof(T) without requiring a value in hand.
func SizeOf[T Numeric]() int {
	var z T
	_, n := toBits(z)
	return n
}

// KindOf returns the Kind tag matching T, for display and dispatch bookkeeping.
func KindOf[T Numeric]() Kind {
	var z T
	switch any(z).(type) {
	case int8:
		return I8
	case uint8:
		return U8
	case int16:
		return I16
	case uint16:
		return U16
	case int32:
		return I32
	case uint32:
		return U32
	case int64:
		return I64
	case uint64:
		return U64
	case float32:
		return F32
	case float64:
		return F64
	default:
		return I8
	}
}

// toBits extracts the raw width-n bit pattern of v, zero-extended into a
// uint64 in host-native layout (no endian swap applied).
func toBits[T Numeric](v T) (bits uint64, n int) {
	switch x := any(v).(type) {
	case int8:
		return uint64(uint8(x)), 1
	case uint8:
		return uint64(x), 1
	case int16:
		return uint64(uint16(x)), 2
	case uint16:
		return uint64(x), 2
	case int32:
		return uint64(uint32(x)), 4
	case uint32:
		return uint64(x), 4
	case int64:
		return uint64(x), 8
	case uint64:
		return x, 8
	case float32:
		return uint64(math.Float32bits(x)), 4
	case float64:
		return math.Float64bits(x), 8
	default:
		return 0, 0
	}
}

// fromBits reconstructs a T from a host-native-layout bit pattern.
func fromBits[T Numeric](bits uint64) T {
	var z T
	switch any(z).(type) {
	case int8:
		return any(int8(bits)).(T)
	case uint8:
		return any(uint8(bits)).(T)
	case int16:
		return any(int16(bits)).(T)
	case uint16:
		return any(uint16(bits)).(T)
	case int32:
		return any(int32(bits)).(T)
	case uint32:
		return any(uint32(bits)).(T)
	case int64:
		return any(int64(bits)).(T)
	case uint64:
		return any(bits).(T)
	case float32:
		return any(math.Float32frombits(uint32(bits))).(T)
	case float64:
		return any(math.Float64frombits(bits)).(T)
	default:
		return z
	}
}

// reverse returns a byte-swapped copy of buf.
func reverse(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[len(buf)-1-i] = b
	}
	return out
}

// rawBits reads n little-endian bytes (the host-native layout on every
// target architecture this engine supports: amd64 and arm64 Android/Linux),
// byte-swapping first when swap is set, so that both predicate comparisons
// and on-read interpretation see the swapped bytes before numeric semantics
// apply.
func rawBits(buf []byte, n int, swap bool) uint64 {
	b := buf[:n]
	if swap {
		b = reverse(b)
	}
	switch n {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		return 0
	}
}

// Decode interprets the first sizeof(T) bytes of buf as a T, applying the
// byte swap first if swap is true. buf must be at least SizeOf[T]() bytes.
func Decode[T Numeric](buf []byte, swap bool) T {
	n := SizeOf[T]()
	return fromBits[T](rawBits(buf, n, swap))
}

// Encode renders v as sizeof(T) raw bytes, byte-swapped if swap is true.
// This is what procrw.WriteVal (the write-to-matches path) sends to Process
// R/W; the freezer and writeat paths use EncodeKind instead.
func Encode[T Numeric](v T, swap bool) []byte {
	bits, n := toBits(v)
	buf := make([]byte, n)
	switch n {
	case 1:
		buf[0] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf, bits)
	}
	if swap {
		buf = reverse(buf)
	}
	return buf
}

// BitsOf extracts v's native-layout bits, for code that holds a concrete T
// but needs to hand it to a Kind-only collaborator (the freezer, the
// non-generic command facade).
func BitsOf[T Numeric](v T) uint64 {
	bits, _ := toBits(v)
	return bits
}

// ValueFromBits reconstructs a T from native-layout bits, the inverse of
// BitsOf.
func ValueFromBits[T Numeric](bits uint64) T {
	return fromBits[T](bits)
}

// DecodeKind interprets the first Kind.Size() bytes of buf according to
// kind, returning the result as encoded native-layout bits (no Go value of
// the matching type needed) — used by code that only has a runtime Kind,
// such as the freezer and the command dispatcher's "type"-agnostic paths.
func DecodeKind(kind Kind, buf []byte, swap bool) uint64 {
	return rawBits(buf, kind.Size(), swap)
}

// EncodeKind renders bits (as produced by DecodeKind, or parsed directly
// from operator input) as kind.Size() raw bytes, byte-swapped if requested.
func EncodeKind(kind Kind, bits uint64, swap bool) []byte {
	n := kind.Size()
	buf := make([]byte, n)
	switch n {
	case 1:
		buf[0] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf, bits)
	}
	if swap {
		buf = reverse(buf)
	}
	return buf
}

// SwapBits reverses the byte representation of bits at kind's width. Used
// by the "list" display path to undo the byte swap that scanning applied
// under endian=swapped, so displayed values read naturally.
func SwapBits(kind Kind, bits uint64) uint64 {
	buf := EncodeKind(kind, bits, false)
	buf = reverse(buf)
	return DecodeKind(kind, buf, false)
}

// FormatBits renders the native-layout bits of kind for display, e.g. for
// the "list" and "readat" commands which only carry bits + Kind at that
// layer (see cheatengine's non-generic scanner facade).
func FormatBits(kind Kind, bits uint64) string {
	switch kind {
	case I8:
		return formatInt(int64(int8(bits)))
	case U8:
		return formatUint(uint64(uint8(bits)))
	case I16:
		return formatInt(int64(int16(bits)))
	case U16:
		return formatUint(uint64(uint16(bits)))
	case I32:
		return formatInt(int64(int32(bits)))
	case U32:
		return formatUint(uint64(uint32(bits)))
	case I64:
		return formatInt(int64(bits))
	case U64:
		return formatUint(bits)
	case F32:
		return formatFloat(float64(math.Float32frombits(uint32(bits))))
	case F64:
		return formatFloat(math.Float64frombits(bits))
	default:
		return ""
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
