package engine

import "errors"

// ValidationError rejects a submission before any scoring happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	errEmptyPrompt     = &ValidationError{Reason: "prompt must not be empty or whitespace-only"}
	errModelNotAllowed = &ValidationError{Reason: "requested model is not in the allow-list"}
)
