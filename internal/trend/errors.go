package trend

import "errors"

var (
	// ErrEmptyInput is returned by Summarize for a table without keywords or time points.
	ErrEmptyInput = errors.New("nothing to summarize")

	// ErrNoData signals a fetch that succeeded but returned no usable scores.
	ErrNoData = errors.New("no data found for this combination")

	// ErrInvalidTable is wrapped by every InvariantError.
	ErrInvalidTable = errors.New("invalid trend table")
)

// InvariantError describes why a table could not be constructed.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return ErrInvalidTable.Error() + ": " + e.Reason
}

func (e *InvariantError) Unwrap() error {
	return ErrInvalidTable
}
