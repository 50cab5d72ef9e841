package upstream

import (
	"fmt"

	"github.com/af-corp/campaign-relay/internal/types"
)

// Error is a relay failure with its client-facing kind. Message is safe to
// show to callers; Cause is kept for logs and debug envelopes.
type Error struct {
	Kind       types.ErrorKind
	Message    string
	StatusCode int // upstream HTTP status, UPSTREAM_ERROR only
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind types.ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ErrConfiguration matches any CONFIGURATION_ERROR with errors.Is.
var ErrConfiguration = &Error{Kind: types.KindConfiguration}
