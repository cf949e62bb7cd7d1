package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseBits parses a decimal or 0x-prefixed literal for the given kind and
// returns it as native-layout bits (the same representation DecodeKind
// produces), ready to feed into EncodeKind or ValueFromBits. This is the
// counterpart of FormatBits, used when a command line supplies a
// right-hand-side value such as "scan = 666" or "writeat 0x1000 42".
func ParseBits(kind Kind, s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if kind.IsFloat() {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s literal %q: %w", kind, s, err)
		}
		if kind == F32 {
			return uint64(math.Float32bits(float32(f))), nil
		}
		return math.Float64bits(f), nil
	}

	base := 10
	trimmed := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		trimmed = s[2:]
	}

	signed := kind == I8 || kind == I16 || kind == I32 || kind == I64
	bitSize := kind.Size() * 8

	if signed {
		v, err := strconv.ParseInt(trimmed, base, bitSize)
		if err != nil {
			return 0, fmt.Errorf("invalid %s literal %q: %w", kind, s, err)
		}
		bits := uint64(truncateSigned(kind, v))
		if bitSize < 64 {
			bits &= 1<<uint(bitSize) - 1
		}
		return bits, nil
	}

	v, err := strconv.ParseUint(trimmed, base, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid %s literal %q: %w", kind, s, err)
	}
	return v, nil
}

// truncateSigned narrows v to kind's width and returns it sign-extended back
// out as int64; ParseBits then masks it to the kind's width.
func truncateSigned(kind Kind, v int64) int64 {
	switch kind {
	case I8:
		return int64(int8(v))
	case I16:
		return int64(int16(v))
	case I32:
		return int64(int32(v))
	default:
		return v
	}
}
