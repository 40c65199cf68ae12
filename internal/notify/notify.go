// Package notify schedules launch reminders ahead of T-0 and delivers them
// through pluggable adapters. Schedules persist locally and are recomputed
// against the current target instant on every load, so a device that slept
// through its fire time still gets the reminder instead of losing it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/avelar/launchdeck/internal/localstore"
)

// Schedule is one persisted reminder request.
type Schedule struct {
	EventID       string    `json:"event_id"`
	Label         string    `json:"label"`
	TargetInstant time.Time `json:"target_instant"`
	LeadSeconds   int       `json:"lead_seconds"`
}

// FireAt is the wall-clock instant the reminder should fire, derived rather
// than stored: the target may move if the mission slips.
func (s Schedule) FireAt() time.Time {
	return s.TargetInstant.Add(-time.Duration(s.LeadSeconds) * time.Second)
}

// Reminder is the payload handed to delivery adapters.
type Reminder struct {
	EventID       string
	Label         string
	TargetInstant time.Time
	LeadSeconds   int
	FiredAt       time.Time
	// Late is true when the reminder fired on load because its original
	// fire time had already passed.
	Late bool
}

// Adapter delivers a reminder to one destination. Delivery is best effort:
// a failing adapter is logged, never fatal, and never blocks the others.
type Adapter interface {
	Name() string
	Notify(ctx context.Context, r Reminder) error
}

// LogAdapter writes reminders to a writer. Always available; the scheduler
// degrades to it when no chat adapter is configured. The zero value writes
// to stdout.
type LogAdapter struct {
	Out io.Writer
}

func (a *LogAdapter) Name() string { return "log" }

func (a *LogAdapter) Notify(_ context.Context, r Reminder) error {
	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	until := time.Until(r.TargetInstant).Round(time.Second)
	fmt.Fprintf(out, "REMINDER %s: %s (T-0 in %s)\n", r.EventID, r.Label, until)
	return nil
}

// Scheduler owns the persisted schedules and their one-shot timers.
type Scheduler struct {
	local    *localstore.Store
	adapters []Adapter

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewScheduler creates a Scheduler delivering through the given adapters.
func NewScheduler(local *localstore.Store, adapters ...Adapter) *Scheduler {
	return &Scheduler{
		local:    local,
		adapters: adapters,
		timers:   make(map[string]*time.Timer),
	}
}

// Set persists the schedule and arms its timer, replacing any existing
// reminder with the same event and label.
func (s *Scheduler) Set(ctx context.Context, sched Schedule) error {
	if sched.LeadSeconds < 0 {
		return fmt.Errorf("notify: lead must be non-negative, got %d", sched.LeadSeconds)
	}
	raw, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("notify: marshal schedule: %w", err)
	}
	if err := s.local.Set(scheduleKey(sched.EventID, sched.Label), string(raw)); err != nil {
		return fmt.Errorf("notify: persist schedule: %w", err)
	}
	s.arm(ctx, sched, time.Now())
	return nil
}

// Cancel removes the persisted schedule and disarms its timer. Cancelling an
// absent schedule is a no-op.
func (s *Scheduler) Cancel(eventID, label string) error {
	key := scheduleKey(eventID, label)
	s.mu.Lock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()
	if err := s.local.Remove(key); err != nil {
		return fmt.Errorf("notify: remove schedule: %w", err)
	}
	return nil
}

// List returns all persisted schedules.
func (s *Scheduler) List() []Schedule {
	var scheds []Schedule
	for _, key := range s.local.Keys("reminder:") {
		raw, ok := s.local.Get(key)
		if !ok {
			continue
		}
		var sched Schedule
		if err := json.Unmarshal([]byte(raw), &sched); err != nil {
			continue
		}
		scheds = append(scheds, sched)
	}
	return scheds
}

// Rearm re-reads every persisted schedule and recomputes its fire time
// against now and the current target instant, which may have moved since
// the schedule was written. A fire time already in the past fires
// immediately rather than being silently dropped. Called on every load.
func (s *Scheduler) Rearm(ctx context.Context, now time.Time, currentTargets map[string]time.Time) {
	for _, sched := range s.List() {
		if target, ok := currentTargets[sched.EventID]; ok && !target.Equal(sched.TargetInstant) {
			sched.TargetInstant = target
			raw, err := json.Marshal(sched)
			if err == nil {
				s.local.Set(scheduleKey(sched.EventID, sched.Label), string(raw))
			}
		}
		s.arm(ctx, sched, now)
	}
}

// Close disarms all timers without removing persisted schedules; the next
// load re-arms them. Idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *Scheduler) arm(ctx context.Context, sched Schedule, now time.Time) {
	key := scheduleKey(sched.EventID, sched.Label)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
	wait := sched.FireAt().Sub(now)
	if wait <= 0 {
		s.mu.Unlock()
		s.fire(ctx, sched, true)
		return
	}
	s.timers[key] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		s.fire(ctx, sched, false)
	})
	s.mu.Unlock()
}

// fire delivers through every adapter and removes the persisted entry.
func (s *Scheduler) fire(ctx context.Context, sched Schedule, late bool) {
	r := Reminder{
		EventID:       sched.EventID,
		Label:         sched.Label,
		TargetInstant: sched.TargetInstant,
		LeadSeconds:   sched.LeadSeconds,
		FiredAt:       time.Now(),
		Late:          late,
	}
	for _, a := range s.adapters {
		if err := a.Notify(ctx, r); err != nil {
			log.Printf("notify: %s adapter: %v", a.Name(), err)
		}
	}
	if err := s.local.Remove(scheduleKey(sched.EventID, sched.Label)); err != nil {
		log.Printf("notify: remove fired schedule: %v", err)
	}
}

func scheduleKey(eventID, label string) string {
	return fmt.Sprintf("reminder:%s:%s", eventID, label)
}
