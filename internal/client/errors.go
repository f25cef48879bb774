package client

import (
	"fmt"
	"time"
)

// APIError is a non-2xx response from the upload service.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message,omitempty"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		if e.RequestID != "" {
			return fmt.Sprintf("api error: status=%d request_id=%s message=%s", e.StatusCode, e.RequestID, e.Message)
		}
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// AuthError indicates a rejected login or token (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds before retrying: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// NotFoundError indicates a missing upload.
type NotFoundError struct{ *APIError }

func (e *NotFoundError) Error() string { return fmt.Sprintf("not found: %s", e.APIError.Error()) }

// BadRequestError indicates a 400 validation problem, e.g. registration rules.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the service.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("server error: %s", e.APIError.Error()) }

// UnreachableError indicates the service could not be contacted.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// FetchError wraps any failure to retrieve an upload's table.
type FetchError struct {
	UploadID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch upload %s: %v", e.UploadID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
