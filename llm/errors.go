package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures of upstream generation calls so callers can
// distinguish timeouts, quota exhaustion, and malformed responses.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeRequest
	ErrorTypeTimeout
	ErrorTypeQuotaExceeded
	ErrorTypeMalformedResponse
	ErrorTypeAPI
	ErrorTypeAuthentication
	ErrorTypeInvalidInput
)

// LLMError represents an error from the llm package.
type LLMError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// TypeString returns the stable error code reported to callers.
func (e *LLMError) TypeString() string {
	switch e.Type {
	case ErrorTypeRequest:
		return "RequestError"
	case ErrorTypeTimeout:
		return "UpstreamTimeout"
	case ErrorTypeQuotaExceeded:
		return "UpstreamQuotaExceeded"
	case ErrorTypeMalformedResponse:
		return "UpstreamMalformedResponse"
	case ErrorTypeAPI:
		return "APIError"
	case ErrorTypeAuthentication:
		return "AuthenticationError"
	case ErrorTypeInvalidInput:
		return "InvalidInputError"
	default:
		return "UnknownError"
	}
}

// NewLLMError creates a new LLMError.
func NewLLMError(errType ErrorType, message string, err error) *LLMError {
	return &LLMError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown when err
// is not an LLMError.
func TypeOf(err error) ErrorType {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// classifyStatus maps an HTTP status code to an ErrorType.
func classifyStatus(status int) ErrorType {
	switch status {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return ErrorTypeQuotaExceeded
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorTypeAuthentication
	default:
		return ErrorTypeAPI
	}
}

// classifyTransport maps transport-level errors, recognizing context
// cancellation and deadline expiry as timeouts.
func classifyTransport(err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTypeTimeout
	}
	return ErrorTypeRequest
}
