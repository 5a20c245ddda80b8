package desk

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is returned by Login when the device rejects
	// the credentials or the login request cannot be completed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnsupportedOnPlatform is returned when an operation has no
	// equivalent on the connected platform (e.g. SetMode on a legacy Panda).
	ErrUnsupportedOnPlatform = errors.New("operation not supported on this platform")

	// ErrStreamClosed is returned by Stream.Next after the subscription
	// has been closed.
	ErrStreamClosed = errors.New("stream closed")
)

// RequestError is returned for any HTTP response with a non-2xx status,
// privileged or not. The response body is preserved verbatim for
// diagnostics; the device's error messages are the only clue to what
// went wrong (e.g. a stale control token secret).
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// DecodeError is returned by Stream.Next when a channel frame cannot be
// decoded. It terminates the subscription that produced it; sibling
// subscriptions are unaffected.
type DecodeError struct {
	Channel string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode message from %s: %v", e.Channel, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
