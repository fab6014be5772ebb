package processor

import (
	"context"
	"errors"
	"fmt"
)

// TransportError means no HTTP response was obtained: refused connection,
// DNS failure, timeout or a dropped stream.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("contact processing service %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// StatusError is a response outside the 2xx range.
type StatusError struct {
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("processing service returned HTTP %d: %s", e.Code, e.Snippet)
	}
	return fmt.Sprintf("processing service returned HTTP %d", e.Code)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
