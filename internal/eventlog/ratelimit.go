package eventlog

import (
	"sync"
	"time"

	"github.com/avelar/launchdeck/internal/models"
)

// bucketKey identifies one cooldown bucket. Anonymous actors pass their
// session id as the actor component.
type bucketKey struct {
	Actor   string
	EventID string
	Kind    models.LogKind
}

// RateLimiter enforces per-(actor, event, kind) write cooldowns. It is the
// only shared mutable resource on the write path and lives entirely server
// side; clients only ever see the retry-after it hands back.
type RateLimiter struct {
	mu        sync.Mutex
	cooldowns map[models.LogKind]time.Duration
	next      map[bucketKey]time.Time
}

// NewRateLimiter creates a limiter with per-kind cooldowns. Kinds without an
// entry are not limited.
func NewRateLimiter(cooldowns map[models.LogKind]time.Duration) *RateLimiter {
	return &RateLimiter{
		cooldowns: cooldowns,
		next:      make(map[bucketKey]time.Time),
	}
}

// Allow reserves a write slot for the bucket at the given instant. When the
// bucket is cooling down it returns false and the remaining wait; the bucket
// is not extended by rejected attempts.
func (rl *RateLimiter) Allow(actor, eventID string, kind models.LogKind, now time.Time) (bool, time.Duration) {
	cooldown, limited := rl.cooldowns[kind]
	if !limited || cooldown <= 0 {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := bucketKey{Actor: actor, EventID: eventID, Kind: kind}
	if until, ok := rl.next[key]; ok && now.Before(until) {
		return false, until.Sub(now)
	}
	rl.next[key] = now.Add(cooldown)
	return true, 0
}

// Prune drops buckets whose cooldown already expired. Called opportunistically
// by the retention sweeper so a multi-day event does not accumulate one entry
// per visitor forever.
func (rl *RateLimiter) Prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, until := range rl.next {
		if now.After(until) {
			delete(rl.next, key)
		}
	}
}
