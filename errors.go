package bsi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a caller supplies arguments the
	// index cannot act on. More specific causes are joined to it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedOperation is returned for unknown comparison operations
	// and for mutation requests against read-only indexes.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrReadOnly is returned when a mutable handle is requested from an
	// Immutable index.
	ErrReadOnly = errors.New("index is read-only")

	// ErrKeysOverlap is returned by Merge when both indexes share a key.
	ErrKeysOverlap = errors.New("merge requires disjoint key sets")

	// ErrInvalidK is returned by TopK when k is negative or larger than the
	// number of candidate keys.
	ErrInvalidK = errors.New("k out of range")

	// ErrEmptyBatch is returned by SetValues when called with no pairs.
	ErrEmptyBatch = errors.New("empty batch without explicit bounds")

	// ErrValueOverflow is returned when a bound does not fit the fixed-width
	// encoding of the key width.
	ErrValueOverflow = errors.New("value overflows fixed-width field")
)

// OperationError reports an Operation outside the supported set.
//
// It unwraps to ErrUnsupportedOperation.
type OperationError struct {
	Op Operation
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %d", int(e.Op))
}

func (e *OperationError) Unwrap() error { return ErrUnsupportedOperation }

// BoundsError reports a value outside explicitly supplied bounds.
//
// It unwraps to ErrInvalidArgument.
type BoundsError struct {
	Min, Max uint64
	Value    uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("value %d outside bounds [%d, %d]", e.Value, e.Min, e.Max)
}

func (e *BoundsError) Unwrap() error { return ErrInvalidArgument }

var errReadOnly = fmt.Errorf("%w: %w", ErrUnsupportedOperation, ErrReadOnly)

func invalidArgument(cause error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, cause)
}
