package eventlog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avelar/launchdeck/internal/models"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Sweeper deletes interaction rows older than the retention window on a cron
// schedule, so the append-only logs stay bounded across a multi-day event.
// Aggregate totals and votes are kept; they are the authoritative state.
type Sweeper struct {
	store     *Store
	schedule  cron.Schedule
	retention time.Duration
}

// NewSweeper creates a Sweeper from a 5-field cron expression and a retention
// window in days.
func NewSweeper(store *Store, expr string, retentionDays int) (*Sweeper, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("eventlog: sweeper schedule %q: %w", expr, err)
	}
	if retentionDays <= 0 {
		return nil, fmt.Errorf("eventlog: retention must be positive, got %d days", retentionDays)
	}
	return &Sweeper{
		store:     store,
		schedule:  sched,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}, nil
}

// Run blocks until ctx is cancelled, sweeping at each scheduled fire time.
func (sw *Sweeper) Run(ctx context.Context) {
	for {
		next := sw.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := sw.Sweep(time.Now()); err != nil {
				log.Printf("sweeper: %v", err)
			}
		}
	}
}

// Sweep deletes chat messages and raw reaction events older than the
// retention window, then prunes expired rate-limit buckets.
func (sw *Sweeper) Sweep(now time.Time) error {
	cutoff := now.Add(-sw.retention)

	res := sw.store.db.Where("created_at < ?", cutoff).Delete(&models.ChatMessage{})
	if res.Error != nil {
		return fmt.Errorf("eventlog: sweep chat: %w", res.Error)
	}
	chatDeleted := res.RowsAffected

	res = sw.store.db.Where("created_at < ?", cutoff).Delete(&models.ReactionEvent{})
	if res.Error != nil {
		return fmt.Errorf("eventlog: sweep reactions: %w", res.Error)
	}

	if chatDeleted+res.RowsAffected > 0 {
		log.Printf("sweeper: removed %d chat, %d reaction rows older than %s",
			chatDeleted, res.RowsAffected, cutoff.Format(time.RFC3339))
	}
	if sw.store.limiter != nil {
		sw.store.limiter.Prune(now)
	}
	return nil
}
