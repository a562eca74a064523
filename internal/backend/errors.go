package backend

import (
	"errors"
	"strconv"
)

// ErrorKind classifies how a backend call failed
type ErrorKind string

const (
	// KindTransport covers connection errors, timeouts and cancellation:
	// the request never produced a response.
	KindTransport ErrorKind = "transport"
	// KindStatus is a non-2xx response
	KindStatus ErrorKind = "status"
	// KindDecode is a response body that could not be parsed
	KindDecode ErrorKind = "decode"
)

// APIError represents a failed call to the chart backend
type APIError struct {
	Endpoint  string
	Operation string
	Kind      ErrorKind
	Status    int
	Message   string
	Err       error
}

func (e *APIError) Error() string {
	msg := "backend " + e.Operation + " failed"
	if e.Status != 0 {
		msg += " (HTTP " + strconv.Itoa(e.Status) + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Endpoint != "" {
		msg += " (endpoint: " + e.Endpoint + ")"
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a backend call that never got a response
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransport
}

// ServerMessage returns the message the backend itself reported, if any
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindStatus && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
