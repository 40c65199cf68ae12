package syncclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/avelar/launchdeck/internal/models"
)

// ProvisionalChat is a locally-applied chat entry awaiting confirmation. It
// never shares the server id space; reconciliation drops it rather than
// matching it against a confirmed record.
type ProvisionalChat struct {
	LocalID      string    `json:"local_id"`
	Handle       string    `json:"handle"`
	Body         string    `json:"body"`
	PendingSince time.Time `json:"pending_since"`
}

// SendChat applies a provisional entry immediately, then writes through. On
// rejection the provisional entry is removed; rate limits additionally pause
// the write path for the hinted duration.
func (s *Syncer) SendChat(ctx context.Context, body string) error {
	if err := s.checkCooldown(time.Now()); err != nil {
		return err
	}

	prov := ProvisionalChat{
		LocalID:      uuid.NewString(),
		Handle:       s.handle,
		Body:         body,
		PendingSince: time.Now(),
	}
	s.mu.Lock()
	s.provisional = append(s.provisional, prov)
	s.mu.Unlock()

	msg, err := s.client.PostChat(ctx, s.actor, s.handle, body)
	if err != nil {
		s.dropProvisional(prov.LocalID)
		s.noteWriteError(err)
		return err
	}

	// Confirmed directly; merge now instead of waiting a poll tick, and
	// retire the provisional copy.
	s.mu.Lock()
	s.mergeChatLocked([]models.ChatMessage{*msg})
	s.mu.Unlock()
	s.dropProvisional(prov.LocalID)
	return nil
}

// React overlays the optimistic increment immediately and reconciles once
// the response arrives: success folds the authoritative total into the
// snapshot, rejection rolls back exactly the delta that was applied.
func (s *Syncer) React(ctx context.Context, emoji string) error {
	if err := s.checkCooldown(time.Now()); err != nil {
		return err
	}

	s.mu.Lock()
	s.pendingDeltas[emoji]++
	s.mu.Unlock()

	total, err := s.client.PostReaction(ctx, s.actor, emoji)

	s.mu.Lock()
	s.pendingDeltas[emoji]--
	if s.pendingDeltas[emoji] == 0 {
		delete(s.pendingDeltas, emoji)
	}
	if err == nil {
		s.reactionTotals[emoji] = total
	}
	s.mu.Unlock()

	if err != nil {
		s.noteWriteError(err)
		return err
	}
	return nil
}

// Vote casts the actor's vote. The local voted set short-circuits redundant
// attempts; the server stays authoritative and an ErrAlreadyVoted response
// is folded back into local state exactly like a success.
func (s *Syncer) Vote(ctx context.Context, pollID uint, position int) error {
	s.mu.Lock()
	if _, done := s.voted[pollID]; done {
		s.mu.Unlock()
		return ErrAlreadyVoted
	}
	s.mu.Unlock()

	if err := s.checkCooldown(time.Now()); err != nil {
		return err
	}

	err := s.client.PostVote(ctx, pollID, s.actor, position)
	if err != nil && !errors.Is(err, ErrAlreadyVoted) {
		s.noteWriteError(err)
		return err
	}

	s.mu.Lock()
	s.rememberVoteLocked(pollID, position)
	s.mu.Unlock()
	if errors.Is(err, ErrAlreadyVoted) {
		return ErrAlreadyVoted
	}
	return nil
}

// checkCooldown rejects writes during a rate-limit pause without touching
// the server. Reads are never gated here.
func (s *Syncer) checkCooldown(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Before(s.cooldownUntil) {
		return &RateLimitedError{RetryAfter: s.cooldownUntil.Sub(now)}
	}
	return nil
}

// noteWriteError records rejection state for the snapshot. Rate limits pause
// the write path for the server-hinted duration; network failures set no
// state at all, since the next natural poll or retry absorbs them.
func (s *Syncer) noteWriteError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		s.cooldownUntil = time.Now().Add(rl.RetryAfter)
		s.lastRejection = ""
		return
	}
	var invalid *InvalidWriteError
	if errors.As(err, &invalid) {
		s.lastRejection = invalid.Reason
	}
}

func (s *Syncer) dropProvisional(localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.provisional {
		if p.LocalID == localID {
			s.provisional = append(s.provisional[:i], s.provisional[i+1:]...)
			return
		}
	}
}

// rememberVoteLocked records the vote in memory and, when a local store is
// attached, persists it so a reload does not re-offer the poll.
func (s *Syncer) rememberVoteLocked(pollID uint, position int) {
	if prev, ok := s.voted[pollID]; ok && prev == position {
		return
	}
	s.voted[pollID] = position
	if s.local != nil {
		key := votedKey(s.client.EventID(), pollID)
		if err := s.local.Set(key, strconv.Itoa(position)); err != nil {
			// Advisory state only; the server remains authoritative.
			return
		}
	}
}

func (s *Syncer) loadVotedSet() {
	if s.local == nil {
		return
	}
	prefix := fmt.Sprintf("voted:%s:", s.client.EventID())
	for _, key := range s.local.Keys(prefix) {
		pollID, err := strconv.ParseUint(key[len(prefix):], 10, 64)
		if err != nil {
			continue
		}
		raw, _ := s.local.Get(key)
		position, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		s.voted[uint(pollID)] = position
	}
}

func votedKey(eventID string, pollID uint) string {
	return fmt.Sprintf("voted:%s:%d", eventID, pollID)
}
