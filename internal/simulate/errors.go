package simulate

import "github.com/rotisserie/eris"

// ConfigurationError reports an invalid simulation configuration: an
// out-of-range horizon, iteration count, or an unrecognized frequency or
// correlation method. It is always returned before any sampling begins.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return "simulate: invalid configuration: " + e.Field + ": " + e.Message
}

func configError(field, message string) error {
	return eris.Wrap(&ConfigurationError{Field: field, Message: message}, "simulate")
}

// InsufficientDataError reports a dataset that passed validation but does
// not carry enough elements to run a meaningful simulation: zero CAPEX
// items and zero risks.
type InsufficientDataError struct {
	Message string
}

func (e *InsufficientDataError) Error() string {
	return "simulate: insufficient data: " + e.Message
}

func insufficientDataError(message string) error {
	return eris.Wrap(&InsufficientDataError{Message: message}, "simulate")
}

// NumericError reports a failure inside the numerical core: a
// correlation matrix that could not be repaired into positive
// semi-definiteness. Non-finite sampler values are not checked for.
type NumericError struct {
	Stage   string
	Message string
}

func (e *NumericError) Error() string {
	return "simulate: numeric error in " + e.Stage + ": " + e.Message
}

func numericError(stage, message string) error {
	return eris.Wrap(&NumericError{Stage: stage, Message: message}, "simulate")
}

// CancelledError reports that the caller's context was cancelled before
// the simulation completed.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	return "simulate: cancelled: " + e.Cause.Error()
}

func (e *CancelledError) Unwrap() error { return e.Cause }

func cancelledError(cause error) error {
	return &CancelledError{Cause: cause}
}

// InternalError wraps any failure that should never happen given a valid
// configuration and a validated dataset — a programming error surfacing
// at runtime rather than a condition a caller can correct.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return "simulate: internal error: " + e.Cause.Error()
}

func (e *InternalError) Unwrap() error { return e.Cause }

func internalError(cause error) error {
	return eris.Wrap(&InternalError{Cause: cause}, "simulate")
}
