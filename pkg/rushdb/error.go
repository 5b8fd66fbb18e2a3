package rushdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransactionCompleted is returned when committing or rolling back a
	// transaction that has already been committed or rolled back.
	ErrTransactionCompleted = errors.New("rushdb: transaction already completed")

	// ErrInvalidTarget is wrapped by the ValidationError returned when a
	// relationship target cannot be reduced to record ids.
	ErrInvalidTarget = errors.New("rushdb: invalid target format")

	// ErrNotUnique is returned by FindUnique when several records match.
	ErrNotUnique = errors.New("rushdb: query matches more than one record")

	// ErrUnboundRecord is returned by Record convenience methods on records
	// that were not obtained through a Client.
	ErrUnboundRecord = errors.New("rushdb: record is not bound to a client")
)

// ErrorKind classifies errors produced while talking to the server.
type ErrorKind string

const (
	// KindHTTP is a non-2xx response from the server.
	KindHTTP ErrorKind = "http"

	// KindConnection is a network, DNS or TLS failure.
	KindConnection ErrorKind = "connection"

	// KindDecode is a response body that is not valid JSON.
	KindDecode ErrorKind = "decode"
)

// Error represents a failed request against the RushDB API.
type Error struct {
	// Kind is the failure class.
	Kind ErrorKind `json:"kind"`

	// Message is the server-provided message, or a description of the
	// local failure.
	Message string `json:"message"`

	// Details is the full error body returned by the server, if any.
	Details json.RawMessage `json:"details,omitempty"`

	// HTTPStatus is the HTTP status code. Zero for connection errors.
	HTTPStatus int `json:"status,omitempty"`

	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`

	// Cause is the underlying error for connection and decode failures.
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("rushdb: ")
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	switch e.Kind {
	case KindHTTP:
		fmt.Fprintf(&b, "%s (status=%d)", e.Message, e.HTTPStatus)
	case KindConnection:
		fmt.Fprintf(&b, "connection error: %s", e.Message)
	case KindDecode:
		fmt.Fprintf(&b, "invalid JSON response: %s", e.Message)
	default:
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsNotFound returns true if the server answered 404.
func (e *Error) IsNotFound() bool {
	return e.HTTPStatus == http.StatusNotFound
}

// IsUnauthorized returns true if the credential was rejected.
func (e *Error) IsUnauthorized() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden
}

// IsServerError returns true if this is a server-side error.
func (e *Error) IsServerError() bool {
	return e.HTTPStatus >= 500
}

// IsConnection returns true if the request never reached the server.
func (e *Error) IsConnection() bool {
	return e.Kind == KindConnection
}

// AsError extracts *Error from an error.
//
// Example:
//
//	if e, ok := rushdb.AsError(err); ok && e.IsNotFound() {
//	    // Handle missing record
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ValidationError is a client-side rejection of an argument. No request is
// sent when it is returned.
type ValidationError struct {
	Field  string
	Reason string
	err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "rushdb: " + e.Reason
	}
	return fmt.Sprintf("rushdb: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// parseErrorMessage extracts the human-readable message from an error body.
// The server reports either a string or a list of strings under "message".
func parseErrorMessage(body []byte, status int) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var msg string
		if json.Unmarshal(payload.Message, &msg) == nil && msg != "" {
			return msg
		}
		var msgs []string
		if json.Unmarshal(payload.Message, &msgs) == nil && len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
