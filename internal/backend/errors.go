package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable wraps transport failures, timeouts and an open breaker.
	ErrUnavailable  = errors.New("store API unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is a request the store API received and rejected. Message only
// ever carries text the store API sent; problems found while reading its
// answer go in Detail.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	text := e.Message
	if text == "" {
		text = e.Detail
	}
	if text == "" {
		return fmt.Sprintf("store API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("store API returned status %d: %s", e.StatusCode, text)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
