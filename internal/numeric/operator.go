package numeric

import (
	"fmt"
	"strings"
)

// Operator is one of the eleven predicate kinds a scan round can apply.
// The first six compare against an operator-
// supplied right-hand-side value; the last four ("delta" operators) compare
// the freshly re-read value against the value already stored in Match
// Storage; Any always retains and just refreshes the stored value.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterOrEqual
	OpLessOrEqual
	OpChanged
	OpUnchanged
	OpIncreased
	OpDecreased
	OpAny
)

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpGreaterOrEqual:
		return ">="
	case OpLessOrEqual:
		return "<="
	case OpChanged:
		return "changed"
	case OpUnchanged:
		return "unchanged"
	case OpIncreased:
		return "increased"
	case OpDecreased:
		return "decreased"
	case OpAny:
		return "any"
	default:
		return "?"
	}
}

// NeedsRHS reports whether this operator takes an explicit right-hand-side
// value, as opposed to comparing against the previously stored value.
func (o Operator) NeedsRHS() bool {
	return o <= OpLessOrEqual
}

// ParseOperator recognises both the symbolic scan operators ("=", "!=", ...)
// and the delta-operator keywords ("changed", "increased", ...).
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==":
		return OpEqual, nil
	case "!=", "<>":
		return OpNotEqual, nil
	case ">":
		return OpGreater, nil
	case "<":
		return OpLess, nil
	case ">=":
		return OpGreaterOrEqual, nil
	case "<=":
		return OpLessOrEqual, nil
	case "changed":
		return OpChanged, nil
	case "unchanged":
		return OpUnchanged, nil
	case "increased":
		return OpIncreased, nil
	case "decreased":
		return OpDecreased, nil
	case "any":
		return OpAny, nil
	default:
		return 0, fmt.Errorf("unsupported scan operator: %q", s)
	}
}

// EvalValue applies a value-predicate (equal, not_equal, greater, less,
// greater_or_equal, less_or_equal) to the current reading against rhs.
// Go's native comparison operators already give float32/float64 correct
// IEEE-754 NaN semantics: NaN compares not_equal to anything, and equal is
// false for NaN even against itself.
func EvalValue[T Numeric](op Operator, current, rhs T) bool {
	switch op {
	case OpEqual:
		return current == rhs
	case OpNotEqual:
		return current != rhs
	case OpGreater:
		return current > rhs
	case OpLess:
		return current < rhs
	case OpGreaterOrEqual:
		return current >= rhs
	case OpLessOrEqual:
		return current <= rhs
	default:
		return false
	}
}

// EvalDelta applies a delta-predicate (changed, unchanged, increased,
// decreased, any) comparing the freshly re-read current value against the
// value previously stored in Match Storage.
func EvalDelta[T Numeric](op Operator, current, previous T) bool {
	switch op {
	case OpChanged:
		return current != previous
	case OpUnchanged:
		return current == previous
	case OpIncreased:
		return current > previous
	case OpDecreased:
		return current < previous
	case OpAny:
		return true
	default:
		return false
	}
}
