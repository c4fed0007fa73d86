package client

import (
	"errors"
	"fmt"
)

// ErrHostNotFound is returned by GetHost when the host no longer exists
var ErrHostNotFound = errors.New("host not found")

// AuthenticationError reports that user.login was rejected
type AuthenticationError struct {
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication as %q rejected: %v", e.Username, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed HTTP exchange: the request could not be
// sent, the status was not 200, or the body was not a JSON-RPC response
type TransportError struct {
	Method     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected HTTP status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError reports a JSON-RPC error object or a response without a result
type APIError struct {
	Method  string
	Code    int
	Message string
	Data    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: API error", e.Method)
	if e.Code != 0 {
		msg += fmt.Sprintf(" %d", e.Code)
	}
	msg += ": " + e.Message
	if e.Data != "" {
		msg += " (" + e.Data + ")"
	}
	return msg
}
