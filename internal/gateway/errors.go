package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyQuery is returned when a search string is blank after trimming.
var ErrEmptyQuery = errors.New("search query is empty")

// NetworkError is a transport-level failure: DNS, refused connection, reset,
// or a caller cancellation.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("executing request %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerResponseError is a non-2xx HTTP response.
type ServerResponseError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *ServerResponseError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// TimeoutError means the per-call deadline fired before the server answered.
// It is never retried.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.After)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ConfigurationError reports a missing or malformed setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// Missing builds a ConfigurationError for an absent field.
func Missing(field string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: "is not set"}
}

// UserMessage turns any gateway error into a short human-readable cause.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		netErr  *NetworkError
		respErr *ServerResponseError
		tErr    *TimeoutError
		cfgErr  *ConfigurationError
	)
	switch {
	case errors.As(err, &tErr):
		return fmt.Sprintf("Server did not respond within %s", tErr.After)
	case errors.As(err, &respErr):
		switch respErr.StatusCode {
		case 401, 403:
			return fmt.Sprintf("Server rejected the API key (HTTP %d)", respErr.StatusCode)
		default:
			return fmt.Sprintf("Server returned HTTP %d", respErr.StatusCode)
		}
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not reach server: %v", netErr.Err)
	case errors.As(err, &cfgErr):
		return cfgErr.Error()
	case errors.Is(err, ErrEmptyQuery):
		return "Search query is empty"
	default:
		return err.Error()
	}
}
