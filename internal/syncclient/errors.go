package syncclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyVoted reports a vote the server already holds for this actor.
var ErrAlreadyVoted = errors.New("syncclient: already voted")

// RateLimitedError is a retryable write rejection. The UI shows a countdown
// and disables input until RetryAfter elapses; the read path keeps polling.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("syncclient: rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// InvalidWriteError is a non-retryable rejection. The reason is surfaced
// inline and the user's input is preserved for correction.
type InvalidWriteError struct {
	Reason string
}

func (e *InvalidWriteError) Error() string {
	return "syncclient: write rejected: " + e.Reason
}

// NetworkError covers transport failures, timeouts, and 5xx responses. Not
// surfaced individually; the next natural poll or user retry recovers.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "syncclient: network failure: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
