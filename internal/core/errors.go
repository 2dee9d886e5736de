package core

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNoInterestRate signals that a loan's total owed cannot be
	// computed because no interest rate was recorded. Callers must treat
	// this distinctly from a computed zero.
	ErrNoInterestRate = errors.New("loan has no interest rate")
)

// ValidationError is a recoverable domain validation failure tagged to
// the offending field. It is surfaced to callers as-is; the process
// never treats it as fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError builds a field-tagged validation failure.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
