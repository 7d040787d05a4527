package bsi

// Operation identifies a comparison evaluated by Compare.
type Operation int

const (
	// EQ selects keys whose value equals the predicate.
	EQ Operation = iota
	// NEQ selects keys whose value differs from the predicate.
	NEQ
	// LT selects keys whose value is less than the predicate.
	LT
	// LE selects keys whose value is less than or equal to the predicate.
	LE
	// GT selects keys whose value is greater than the predicate.
	GT
	// GE selects keys whose value is greater than or equal to the predicate.
	GE
	// RANGE selects keys whose value lies in [start, end].
	RANGE
)

func (op Operation) String() string {
	switch op {
	case EQ:
		return "eq"
	case NEQ:
		return "neq"
	case LT:
		return "lt"
	case LE:
		return "le"
	case GT:
		return "gt"
	case GE:
		return "ge"
	case RANGE:
		return "range"
	default:
		return "unknown"
	}
}

func (op Operation) valid() bool {
	return op >= EQ && op <= RANGE
}

// Extremum selects the aggregate computed by MinMax.
type Extremum int

const (
	// Min selects the smallest value.
	Min Extremum = iota
	// Max selects the largest value.
	Max
)
