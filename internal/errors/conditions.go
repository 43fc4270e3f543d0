package errors

import (
	"errors"
	"fmt"
)

// Sentinel conditions reported by the transform/edit core. All of them are
// recoverable: the engine leaves state untouched and surfaces the condition
// to the caller.
var (
	// ErrInsufficientHistory means a required lag or anchor value is missing,
	// so a derived value (or its inverse) cannot be computed at this index.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrZeroDivisor means the baseline or prior value for a percent
	// transform is zero.
	ErrZeroDivisor = errors.New("zero divisor")

	// ErrNonNumericInput means an edit value failed to parse as a number.
	ErrNonNumericInput = errors.New("non-numeric input")

	// ErrLockedSeries means an edit was attempted against a locked file.
	ErrLockedSeries = errors.New("series is locked")

	// ErrUnresolvedLabel means an anchor or window label was not found on
	// the axis. Callers that can self-heal substitute a default position.
	ErrUnresolvedLabel = errors.New("label not found on axis")

	// ErrContextMismatch means a fetch result arrived for a context key that
	// is no longer current and must be discarded.
	ErrContextMismatch = errors.New("stale context key")

	// ErrUnknownFile means a referenced file id is not in the registry.
	ErrUnknownFile = errors.New("unknown input file")

	// ErrUnknownSeries means a file has no row for the requested series name.
	ErrUnknownSeries = errors.New("unknown series name")
)

// ConditionError wraps a sentinel condition with the position it occurred at,
// preserving errors.Is matching on the underlying condition.
type ConditionError struct {
	Condition error
	Detail    string
}

// Error implements the error interface.
func (e *ConditionError) Error() string {
	if e.Detail == "" {
		return e.Condition.Error()
	}
	return fmt.Sprintf("%s: %s", e.Condition.Error(), e.Detail)
}

// Unwrap allows errors.Is to match the underlying condition.
func (e *ConditionError) Unwrap() error {
	return e.Condition
}

// Condition creates a ConditionError with formatted detail.
func Condition(sentinel error, format string, args ...interface{}) *ConditionError {
	return &ConditionError{
		Condition: sentinel,
		Detail:    fmt.Sprintf(format, args...),
	}
}
