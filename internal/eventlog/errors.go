package eventlog

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyVoted reports a vote by an actor who already voted in that poll.
// Totals are unchanged; the caller should reconcile its local voted flag.
var ErrAlreadyVoted = errors.New("eventlog: actor already voted in this poll")

// RateLimitError rejects a write that exceeded the actor's cooldown. It is
// never silent: RetryAfter tells the client when the write path reopens.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("eventlog: rate limited, retry after %s", e.RetryAfter.Round(time.Millisecond))
}

// InvalidError rejects a write whose payload failed validation. Non-retryable;
// the reason is surfaced so the user can correct the input.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return "eventlog: invalid write: " + e.Reason
}
