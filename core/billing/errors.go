package billing

import (
	"errors"
	"fmt"
)

// ResponseError is returned when the provider answers with a non-success code.
type ResponseError struct {
	// Op is the provider operation ("connect", "query", "acknowledge").
	Op string
	// Code is the provider response code.
	Code ResponseCode
	// Message is the provider debug message, if any.
	Message string
	// Err is the transport failure behind a synthesized code, if any.
	Err error
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("billing %s failed: response code %s", e.Op, e.Code)
	}
	return fmt.Sprintf("billing %s failed: response code %s: %s", e.Op, e.Code, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// NewResponseError builds a ResponseError from a provider result.
func NewResponseError(op string, result Result) *ResponseError {
	return &ResponseError{Op: op, Code: result.Code, Message: result.DebugMessage}
}

// CodeOf extracts the provider response code carried by err.
// It returns false when err does not wrap a ResponseError.
func CodeOf(err error) (ResponseCode, bool) {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Code, true
	}
	return 0, false
}
