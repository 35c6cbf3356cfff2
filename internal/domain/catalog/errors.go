package catalog

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNetwork indicates the gateway rejected the request or could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrAuthRequired indicates no local user record exists.
	ErrAuthRequired = errors.New("user not logged in")
)

// ValidationError reports malformed form input caught before submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetwork reports whether err is a gateway failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// ServerMessage returns the message the gateway attached to err, or fallback
// when there is none.
func ServerMessage(err error, fallback string) string {
	var carrier interface{ ServerMessage() string }
	if errors.As(err, &carrier) {
		if msg := carrier.ServerMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
