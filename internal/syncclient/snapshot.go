package syncclient

import (
	"time"

	"github.com/avelar/launchdeck/internal/clock"
	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/models"
	"github.com/avelar/launchdeck/internal/phase"
	"github.com/avelar/launchdeck/internal/telemetry"
)

// ChatEntry is the tagged union the renderer consumes: exactly one of
// Confirmed or Provisional is set.
type ChatEntry struct {
	Confirmed   *models.ChatMessage `json:"confirmed,omitempty"`
	Provisional *ProvisionalChat    `json:"provisional,omitempty"`
}

// Snapshot is the per-tick rendering boundary: plain serializable state with
// no embedded behavior, so the presentation layer is a pure function of it.
type Snapshot struct {
	At             time.Time         `json:"at"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	TMinus         string            `json:"t_minus"`
	Phase          phase.Status      `json:"phase"`
	Telemetry      telemetry.Point   `json:"telemetry"`
	History        []telemetry.Point `json:"history"`

	Chat           []ChatEntry             `json:"chat"`
	ReactionTotals map[string]int64        `json:"reaction_totals"`
	Polls          []eventlog.PollView     `json:"polls"`
	Weather        *models.WeatherAdvisory `json:"weather,omitempty"`

	// CooldownSeconds is the remaining write-path pause; zero when writes
	// are open. LastRejection carries the most recent validation reason.
	CooldownSeconds float64 `json:"cooldown_seconds"`
	LastRejection   string  `json:"last_rejection,omitempty"`
}

// Snapshot assembles the rendering state for the given instant. The
// clock/phase/telemetry layer is computed locally here; the merged log views
// reflect whatever the pollers have converged on so far. Reaction counts are
// the latest authoritative totals with in-flight optimistic deltas overlaid.
func (s *Syncer) Snapshot(now time.Time) Snapshot {
	elapsed := clock.Elapsed(now, s.ref)

	s.mu.Lock()
	defer s.mu.Unlock()

	point := s.tracker.Observe(telemetry.Synthesize(elapsed))
	// A backward clock correction re-bases the cadence marker; otherwise
	// history would freeze until elapsed re-passed the old mark.
	if !s.hasTicked || elapsed-s.lastTick >= 1 || elapsed < s.lastTick {
		s.history = append(s.history, point)
		if len(s.history) > historyCap {
			s.history = s.history[len(s.history)-historyCap:]
		}
		s.lastTick = elapsed
		s.hasTicked = true
	}

	snap := Snapshot{
		At:             now,
		ElapsedSeconds: elapsed,
		TMinus:         clock.FormatTMinus(elapsed),
		Telemetry:      point,
		History:        append([]telemetry.Point(nil), s.history...),
		ReactionTotals: make(map[string]int64, len(s.reactionTotals)),
		Weather:        s.weather,
		LastRejection:  s.lastRejection,
	}
	if s.table != nil {
		snap.Phase = s.table.Resolve(elapsed)
	}

	for emoji, count := range s.reactionTotals {
		snap.ReactionTotals[emoji] = count
	}
	for emoji, delta := range s.pendingDeltas {
		snap.ReactionTotals[emoji] += delta
	}

	snap.Chat = make([]ChatEntry, 0, len(s.chat)+len(s.provisional))
	for i := range s.chat {
		m := s.chat[i]
		snap.Chat = append(snap.Chat, ChatEntry{Confirmed: &m})
	}
	for i := range s.provisional {
		p := s.provisional[i]
		snap.Chat = append(snap.Chat, ChatEntry{Provisional: &p})
	}

	snap.Polls = make([]eventlog.PollView, len(s.polls))
	copy(snap.Polls, s.polls)
	// Overlay the advisory voted set so a reload shows polls as answered
	// even before the next authoritative snapshot lands.
	for i := range snap.Polls {
		if pos, ok := s.voted[snap.Polls[i].ID]; ok && !snap.Polls[i].Voted {
			snap.Polls[i].Voted = true
			snap.Polls[i].VotedPosition = pos
		}
	}

	if now.Before(s.cooldownUntil) {
		snap.CooldownSeconds = s.cooldownUntil.Sub(now).Seconds()
	}
	return snap
}
