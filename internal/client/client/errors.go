package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable marks transport-level failures: unreachable host, DNS,
	// timeouts, or a request that could not be built.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized matches a *StatusError carrying 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse marks a 2xx response whose body is not what the
	// contract promises.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	// Message is the "message" field of the error body, if the server sent one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}
