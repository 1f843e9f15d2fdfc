package figma

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimitExceeded matches any *RateLimitError.
	ErrRateLimitExceeded = errors.New("figma: rate limit exceeded")
	// ErrRemoteUnavailable matches any *RemoteUnavailableError.
	ErrRemoteUnavailable = errors.New("figma: remote unavailable")
)

// RateLimitError is returned when the local hourly budget denies a call.
// No request was sent. Callers should wait until ResetAt.
type RateLimitError struct {
	Used    int
	Max     int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("figma: rate limit exceeded (%d/%d calls this hour, resets at %s)",
		e.Used, e.Max, e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimitExceeded }

// RemoteUnavailableError is returned after every retry attempt failed.
type RemoteUnavailableError struct {
	Attempts int
	Err      error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("figma: remote unavailable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *RemoteUnavailableError) Is(target error) bool { return target == ErrRemoteUnavailable }

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// APIError is a non-retryable HTTP status returned by the API (bad token, unknown file...).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}
