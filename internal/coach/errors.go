package coach

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable cause of a coaching failure. It is returned
// to clients verbatim.
type Reason string

const (
	ReasonNoAPIKey Reason = "NO_API_KEY"
	ReasonBadInput Reason = "BAD_INPUT"
	ReasonAPIError Reason = "API_ERROR"
	ReasonEmpty    Reason = "EMPTY"
)

// Error is a coaching failure with its reason.
type Error struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(reason Reason, message string, err error) *Error {
	return &Error{Reason: reason, Message: message, Err: err}
}

// ReasonOf extracts the reason from err, defaulting to ReasonAPIError for
// errors that did not originate here.
func ReasonOf(err error) Reason {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ReasonAPIError
}
