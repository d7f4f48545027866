package readwise

import (
	"errors"
	"fmt"
	"time"
)

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// APIError represents a non-429 error status from the Readwise API.
type APIError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Readwise API error: %d - %s", e.StatusCode, e.Body)
}

// RateLimitError represents an HTTP 429 from the Readwise API.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Seconds returns the suggested wait in whole seconds.
func (e *RateLimitError) Seconds() int {
	return int(e.RetryAfter / time.Second)
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Too many requests. Please retry after %d seconds.", e.Seconds())
}

// ValidationError reports missing configuration or invalid arguments.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports that no book or document matched a lookup.
type NotFoundError struct {
	Resource string
	Query    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching '%s'", e.Resource, e.Query)
}

// UserMessage renders err for the calling agent. A rate limit anywhere in the
// chain wins over any wrapping context so the wait time is always surfaced verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.Error()
	}
	return err.Error()
}

// IsRateLimited reports whether err wraps a RateLimitError.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
