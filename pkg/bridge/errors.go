package bridge

import (
	"errors"
	"fmt"
)

// ErrNoUserMessage is returned when a conversation holds no user message.
var ErrNoUserMessage = errors.New("no user message in conversation")

// TransportError wraps a failure to reach the backend.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to send request: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a non-2xx answer from the backend.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// MalformedResponseError is returned when a response body is not valid JSON.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("failed to unmarshal response (status %d): %v", e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Reply converts an error from Send into the string shown to the user.
// Backend errors carry their own message; everything else reads as a
// connectivity problem.
func Reply(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoUserMessage) {
		return NoUserMessageReply
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Error()
	}
	return ConnectionFailureReply
}
