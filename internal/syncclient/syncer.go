package syncclient

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/localstore"
	"github.com/avelar/launchdeck/internal/models"
	"github.com/avelar/launchdeck/internal/phase"
	"github.com/avelar/launchdeck/internal/telemetry"
)

// Default polling cadences per log kind. Slower-changing data polls less
// often to bound server load.
const (
	DefaultChatInterval      = 2 * time.Second
	DefaultReactionsInterval = 3 * time.Second
	DefaultPollsInterval     = 5 * time.Second
	DefaultWeatherInterval   = 60 * time.Second

	historyCap   = 120
	chatPageSize = 100
)

// Options holds parameters for creating a Syncer.
type Options struct {
	Client *Client
	Actor  string
	Handle string

	// Ref is the mission reference instant (T-0) for the client-local layer.
	Ref   time.Time
	Table *phase.Table

	// Local persists the advisory voted set across reloads. Optional.
	Local *localstore.Store

	ChatInterval      time.Duration
	ReactionsInterval time.Duration
	PollsInterval     time.Duration
	WeatherInterval   time.Duration
}

// Syncer converges local state on the server's logs with one independent
// ticker per log kind. All merged state is keyed by server id; a failed poll
// keeps the last known good state. Stale-but-present beats empty.
type Syncer struct {
	client *Client
	actor  string
	handle string
	ref    time.Time
	table  *phase.Table
	local  *localstore.Store

	intervals map[models.LogKind]time.Duration

	mu sync.Mutex
	// Chat: confirmed log keyed by server id plus provisional entries.
	chat        []models.ChatMessage
	chatSeen    map[uint]struct{}
	provisional []ProvisionalChat
	// Reactions: authoritative snapshot plus in-flight optimistic deltas.
	reactionTotals map[string]int64
	pendingDeltas  map[string]int64
	// Polls and weather: latest snapshots.
	polls   []eventlog.PollView
	voted   map[uint]int
	weather *models.WeatherAdvisory
	// Write-path cooldown; the read path never pauses.
	cooldownUntil time.Time
	lastRejection string
	// Client-local telemetry session state.
	tracker   *telemetry.Tracker
	history   []telemetry.Point
	lastTick  float64
	hasTicked bool

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSyncer creates a Syncer. The voted set is reloaded from Local so a
// reload does not re-offer polls the actor already answered.
func NewSyncer(opts Options) *Syncer {
	s := &Syncer{
		client: opts.Client,
		actor:  opts.Actor,
		handle: opts.Handle,
		ref:    opts.Ref,
		table:  opts.Table,
		local:  opts.Local,
		intervals: map[models.LogKind]time.Duration{
			models.KindChat:     orDefault(opts.ChatInterval, DefaultChatInterval),
			models.KindReaction: orDefault(opts.ReactionsInterval, DefaultReactionsInterval),
			models.KindPoll:     orDefault(opts.PollsInterval, DefaultPollsInterval),
			models.KindWeather:  orDefault(opts.WeatherInterval, DefaultWeatherInterval),
		},
		chatSeen:       make(map[uint]struct{}),
		reactionTotals: make(map[string]int64),
		pendingDeltas:  make(map[string]int64),
		voted:          make(map[uint]int),
		tracker:        telemetry.NewTracker(),
	}
	s.loadVotedSet()
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Start launches one polling goroutine per log kind. Each runs an immediate
// sync then ticks on its own cadence until ctx is cancelled or Stop is
// called.
func (s *Syncer) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	runs := []struct {
		kind models.LogKind
		sync func(context.Context)
	}{
		{models.KindChat, s.syncChat},
		{models.KindReaction, s.syncReactions},
		{models.KindPoll, s.syncPolls},
		{models.KindWeather, s.syncWeather},
	}
	for _, r := range runs {
		s.wg.Add(1)
		go func(kind models.LogKind, fn func(context.Context)) {
			defer s.wg.Done()
			fn(ctx)
			ticker := time.NewTicker(s.intervals[kind])
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					fn(ctx)
				}
			}
		}(r.kind, r.sync)
	}
}

// Stop tears down all polling goroutines. Idempotent; safe to call after
// context cancellation or not at all.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

// syncChat merges newly confirmed messages and retires provisional entries
// that the authoritative log now covers.
func (s *Syncer) syncChat(ctx context.Context) {
	started := time.Now()
	after := s.lastChatID()
	msgs, err := s.client.FetchChat(ctx, after, chatPageSize)
	if err != nil {
		log.Printf("syncclient: chat poll: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeChatLocked(msgs)
	// The confirmed set replaces provisional entries wholesale: anything
	// pending from before this poll started has either landed (and was just
	// merged under its server id) or was rejected and already removed.
	kept := s.provisional[:0]
	for _, p := range s.provisional {
		if p.PendingSince.After(started) {
			kept = append(kept, p)
		}
	}
	s.provisional = kept
}

func (s *Syncer) syncReactions(ctx context.Context) {
	totals, err := s.client.FetchReactions(ctx)
	if err != nil {
		log.Printf("syncclient: reactions poll: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// The authoritative snapshot supersedes; optimistic deltas for writes
	// still in flight stay overlaid until their responses resolve them.
	s.reactionTotals = totals
}

func (s *Syncer) syncPolls(ctx context.Context) {
	views, err := s.client.FetchPolls(ctx, s.actor)
	if err != nil {
		log.Printf("syncclient: polls poll: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls = views
	// Reconcile the advisory voted set with the authoritative flags.
	for _, v := range views {
		if v.Voted {
			s.rememberVoteLocked(v.ID, v.VotedPosition)
		}
	}
}

func (s *Syncer) syncWeather(ctx context.Context) {
	adv, err := s.client.FetchWeather(ctx)
	if err != nil {
		log.Printf("syncclient: weather poll: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if adv != nil {
		s.weather = adv
	}
}

// mergeChatLocked inserts records absent from the local set in id order.
// Records already present are ignored, so replaying a batch is a no-op and
// out-of-order responses cannot corrupt the view.
func (s *Syncer) mergeChatLocked(msgs []models.ChatMessage) {
	for _, m := range msgs {
		if _, ok := s.chatSeen[m.ID]; ok {
			continue
		}
		s.chatSeen[m.ID] = struct{}{}
		i := len(s.chat)
		for i > 0 && s.chat[i-1].ID > m.ID {
			i--
		}
		s.chat = append(s.chat, models.ChatMessage{})
		copy(s.chat[i+1:], s.chat[i:])
		s.chat[i] = m
	}
}

func (s *Syncer) lastChatID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chat) == 0 {
		return 0
	}
	return s.chat[len(s.chat)-1].ID
}
