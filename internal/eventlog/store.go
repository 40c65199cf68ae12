// Package eventlog is the server-side owner of the append-only interaction
// logs: chat, reactions, polls, and weather advisories. Reads are idempotent
// and ordered by server-assigned id; writes go through per-actor rate limits
// and never fail silently.
package eventlog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avelar/launchdeck/internal/models"
)

const maxChatBody = 500

// Store wraps the event-log database with the write rules the protocol
// depends on: id-ordered reads, one vote per actor, counted reactions.
type Store struct {
	db      *gorm.DB
	limiter *RateLimiter
}

// NewStore creates a Store. A nil limiter disables rate limiting (tests).
func NewStore(db *gorm.DB, limiter *RateLimiter) *Store {
	return &Store{db: db, limiter: limiter}
}

// DB exposes the underlying connection for the sweeper and seeding paths.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ReadChat returns up to limit confirmed messages with id greater than
// afterID, in id order. Safe to call repeatedly; no side effects.
func (s *Store) ReadChat(eventID string, afterID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var msgs []models.ChatMessage
	err := s.db.Where("event_id = ? AND id > ?", eventID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("eventlog: read chat: %w", err)
	}
	return msgs, nil
}

// LastChatID returns the highest confirmed message id for an event, zero
// when the log is empty. Used to baseline live feeds at the current tail.
func (s *Store) LastChatID(eventID string) (uint, error) {
	var msg models.ChatMessage
	err := s.db.Where("event_id = ?", eventID).
		Order("id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("eventlog: last chat id: %w", err)
	}
	return msg.ID, nil
}

// ReadReactions returns the aggregate emoji totals for an event.
func (s *Store) ReadReactions(eventID string) (map[string]int64, error) {
	var rows []models.ReactionTotal
	if err := s.db.Where("event_id = ?", eventID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("eventlog: read reactions: %w", err)
	}
	totals := make(map[string]int64, len(rows))
	for _, row := range rows {
		totals[row.Emoji] = row.Count
	}
	return totals, nil
}

// PollView is the client-facing snapshot of one poll, including whether the
// requesting actor already voted. Counts always come from this snapshot,
// never from client-side accumulation.
type PollView struct {
	ID            uint         `json:"id"`
	Question      string       `json:"question"`
	Open          bool         `json:"open"`
	Options       []OptionView `json:"options"`
	Voted         bool         `json:"voted"`
	VotedPosition int          `json:"voted_position"`
}

// OptionView is one answer choice with its authoritative count.
type OptionView struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Votes    int64  `json:"votes"`
}

// ReadPolls returns every poll for the event in id order. When actorID is
// non-empty each view carries the actor's voted state.
func (s *Store) ReadPolls(eventID, actorID string) ([]PollView, error) {
	var polls []models.Poll
	err := s.db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("event_id = ?", eventID).Order("id ASC").Find(&polls).Error
	if err != nil {
		return nil, fmt.Errorf("eventlog: read polls: %w", err)
	}

	views := make([]PollView, 0, len(polls))
	for _, p := range polls {
		view := PollView{
			ID:            p.ID,
			Question:      p.Question,
			Open:          p.Open,
			VotedPosition: -1,
		}
		for _, opt := range p.Options {
			view.Options = append(view.Options, OptionView{
				Position: opt.Position,
				Label:    opt.Label,
				Votes:    opt.Votes,
			})
		}
		if actorID != "" {
			var vote models.PollVote
			err := s.db.Where("poll_id = ? AND actor_id = ?", p.ID, actorID).First(&vote).Error
			switch {
			case err == nil:
				view.Voted = true
				view.VotedPosition = vote.Position
			case errors.Is(err, gorm.ErrRecordNotFound):
				// not voted
			default:
				return nil, fmt.Errorf("eventlog: read vote: %w", err)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ReadWeather returns the current advisory for the event, or nil when none
// has been recorded yet.
func (s *Store) ReadWeather(eventID string) (*models.WeatherAdvisory, error) {
	var adv models.WeatherAdvisory
	err := s.db.Where("event_id = ?", eventID).Order("id DESC").First(&adv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: read weather: %w", err)
	}
	return &adv, nil
}

// AppendChat validates, rate-limits, and appends one chat message.
func (s *Store) AppendChat(eventID, actorID, handle, body string, now time.Time) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, &InvalidError{Reason: "message body is empty"}
	}
	if len(body) > maxChatBody {
		return nil, &InvalidError{Reason: fmt.Sprintf("message exceeds %d characters", maxChatBody)}
	}
	if actorID == "" {
		return nil, &InvalidError{Reason: "actor is required"}
	}
	if err := s.reserve(actorID, eventID, models.KindChat, now); err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		EventID:   eventID,
		ActorID:   actorID,
		Handle:    handle,
		Body:      body,
		CreatedAt: now,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("eventlog: append chat: %w", err)
	}
	return &msg, nil
}

// AddReaction records one emoji tap and returns the new authoritative total.
// actorID may be a session id for anonymous tappers.
func (s *Store) AddReaction(eventID, actorID, emoji string, now time.Time) (int64, error) {
	if emoji == "" {
		return 0, &InvalidError{Reason: "emoji is required"}
	}
	key := actorID
	if key == "" {
		return 0, &InvalidError{Reason: "actor or session is required"}
	}
	if err := s.reserve(key, eventID, models.KindReaction, now); err != nil {
		return 0, err
	}

	var total models.ReactionTotal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		event := models.ReactionEvent{
			EventID:   eventID,
			ActorID:   actorID,
			Emoji:     emoji,
			CreatedAt: now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "emoji"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).Create(&models.ReactionTotal{EventID: eventID, Emoji: emoji, Count: 1}).Error
		if err != nil {
			return err
		}
		return tx.Where("event_id = ? AND emoji = ?", eventID, emoji).First(&total).Error
	})
	if err != nil {
		return 0, fmt.Errorf("eventlog: add reaction: %w", err)
	}
	return total.Count, nil
}

// CastVote records one actor's vote. A second vote by the same actor, from
// any device, returns ErrAlreadyVoted and leaves every count unchanged.
func (s *Store) CastVote(pollID uint, actorID string, position int, now time.Time) error {
	if actorID == "" {
		return &InvalidError{Reason: "actor is required"}
	}

	var poll models.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &InvalidError{Reason: fmt.Sprintf("poll %d not found", pollID)}
		}
		return fmt.Errorf("eventlog: load poll: %w", err)
	}
	if !poll.Open {
		return &InvalidError{Reason: "poll is closed"}
	}
	var option models.PollOption
	err := s.db.Where("poll_id = ? AND position = ?", pollID, position).First(&option).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &InvalidError{Reason: fmt.Sprintf("poll %d has no option %d", pollID, position)}
	}
	if err != nil {
		return fmt.Errorf("eventlog: load option: %w", err)
	}

	// Settled duplicates are quota-free; a repeat attempt must not burn the
	// actor's vote cooldown. The unique index below still backstops races.
	var dup int64
	if err := s.db.Model(&models.PollVote{}).
		Where("poll_id = ? AND actor_id = ?", pollID, actorID).
		Count(&dup).Error; err != nil {
		return fmt.Errorf("eventlog: check vote: %w", err)
	}
	if dup > 0 {
		return ErrAlreadyVoted
	}

	if err := s.reserve(actorID, poll.EventID, models.KindPoll, now); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		vote := models.PollVote{
			PollID:    pollID,
			ActorID:   actorID,
			Position:  position,
			CreatedAt: now,
		}
		// The unique index on (poll_id, actor_id) is authoritative; a
		// conflicting insert becomes a no-op and the count stays put.
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyVoted
		}
		return tx.Model(&models.PollOption{}).
			Where("id = ?", option.ID).
			UpdateColumn("votes", gorm.Expr("votes + 1")).Error
	})
	if errors.Is(err, ErrAlreadyVoted) {
		return ErrAlreadyVoted
	}
	if err != nil {
		return fmt.Errorf("eventlog: cast vote: %w", err)
	}
	return nil
}

// CreatePoll adds a poll with its options (seed/ops path, not rate-limited).
func (s *Store) CreatePoll(eventID, question string, options []string, now time.Time) (*models.Poll, error) {
	if question == "" || len(options) < 2 {
		return nil, &InvalidError{Reason: "poll needs a question and at least two options"}
	}
	poll := models.Poll{
		EventID:   eventID,
		Question:  question,
		Open:      true,
		CreatedAt: now,
	}
	for i, label := range options {
		poll.Options = append(poll.Options, models.PollOption{Position: i, Label: label})
	}
	if err := s.db.Create(&poll).Error; err != nil {
		return nil, fmt.Errorf("eventlog: create poll: %w", err)
	}
	return &poll, nil
}

// SetWeather appends a new advisory; the latest row is the current one
// (seed/ops path, not rate-limited).
func (s *Store) SetWeather(adv *models.WeatherAdvisory, now time.Time) error {
	if adv.EventID == "" {
		return &InvalidError{Reason: "event is required"}
	}
	switch adv.Status {
	case "go", "no-go", "watch":
	default:
		return &InvalidError{Reason: fmt.Sprintf("status %q is not go, no-go, or watch", adv.Status)}
	}
	adv.ID = 0
	adv.CreatedAt = now
	if err := s.db.Create(adv).Error; err != nil {
		return fmt.Errorf("eventlog: set weather: %w", err)
	}
	return nil
}

func (s *Store) reserve(actor, eventID string, kind models.LogKind, now time.Time) error {
	if s.limiter == nil {
		return nil
	}
	ok, retryAfter := s.limiter.Allow(actor, eventID, kind, now)
	if !ok {
		return &RateLimitError{RetryAfter: retryAfter}
	}
	return nil
}
