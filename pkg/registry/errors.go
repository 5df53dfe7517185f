package registry

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrOperationInFlight rejects a Restore, Login, or Register call made
	// while another of the three is still resolving.
	ErrOperationInFlight = errors.New("a session operation is already in flight")

	// ErrSuperseded reports that an operation resolved after a logout ended
	// the session it was started under; its outcome was discarded.
	ErrSuperseded = errors.New("session operation superseded by logout")

	// ErrAutoLoginFailed marks a registration whose account was created but
	// whose automatic sign-in did not succeed. The underlying cause is
	// wrapped.
	ErrAutoLoginFailed = errors.New("account created but automatic sign-in failed")

	// ErrNotAuthenticated rejects operations that need a live session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Messages recorded on the session when the server sent nothing usable.
// Server-provided messages always take precedence.
const (
	loginFallbackMessage    = "Login failed. Please try again."
	registerFallbackMessage = "Registration failed. Please try again."
)

// APIError is a non-2xx answer from the server. Message carries the server's
// error text verbatim; Fields is set on validation rejections.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, msg)
}

// ValidationError reports field problems found before any request was sent.
// Keys are wire field names, values the reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// failureMessage picks the text recorded on the session for a failed
// operation: the server's own message when there is one, the generic
// fallback when the failure was transport-level or unreadable.
func failureMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
