package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrProtectedRole indicates an attempt to delete the reserved role.
	ErrProtectedRole = errors.New("role is protected and cannot be deleted")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserMessage returns a message safe to show in the UI. Errors that carry a
// server-provided message (the back-office API error type does) surface it
// verbatim; anything else falls back to the supplied text.
func UserMessage(err error, fallback string) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
