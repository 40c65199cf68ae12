package notify

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avelar/launchdeck/internal/localstore"
)

// captureAdapter records delivered reminders for assertions.
type captureAdapter struct {
	mu    sync.Mutex
	fired []Reminder
}

func (a *captureAdapter) Name() string { return "capture" }

func (a *captureAdapter) Notify(_ context.Context, r Reminder) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fired = append(a.fired, r)
	return nil
}

func (a *captureAdapter) reminders() []Reminder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Reminder(nil), a.fired...)
}

func testLocal(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "kv.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSet_PersistsAndLists(t *testing.T) {
	local := testLocal(t)
	capture := &captureAdapter{}
	sched := NewScheduler(local, capture)
	defer sched.Close()

	target := time.Now().Add(time.Hour)
	err := sched.Set(context.Background(), Schedule{
		EventID:       "demo",
		Label:         "Launch soon",
		TargetInstant: target,
		LeadSeconds:   600,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	list := sched.List()
	if len(list) != 1 {
		t.Fatalf("List = %d entries, want 1", len(list))
	}
	if got := list[0].FireAt(); !got.Equal(target.Add(-10 * time.Minute)) {
		t.Errorf("FireAt = %v, want target-10m", got)
	}
	if len(capture.reminders()) != 0 {
		t.Error("reminder fired early")
	}
}

func TestSet_NegativeLeadRejected(t *testing.T) {
	sched := NewScheduler(testLocal(t))
	defer sched.Close()
	err := sched.Set(context.Background(), Schedule{EventID: "demo", LeadSeconds: -1})
	if err == nil {
		t.Fatal("expected error for negative lead")
	}
}

// Reminder across a gap: the app is closed past the fire point and reopened;
// the reminder fires immediately on load instead of being lost.
func TestRearm_FiresImmediatelyWhenPastDue(t *testing.T) {
	local := testLocal(t)
	now := time.Now()
	target := now.Add(time.Hour)

	{
		sched := NewScheduler(local, &captureAdapter{})
		err := sched.Set(context.Background(), Schedule{
			EventID:       "demo",
			Label:         "Launch soon",
			TargetInstant: target,
			LeadSeconds:   600,
		})
		if err != nil {
			t.Fatal(err)
		}
		sched.Close() // app closed; timer gone, schedule persisted
	}

	// Reopened at now+3500s, past the original fire point of now+3000s.
	capture := &captureAdapter{}
	sched := NewScheduler(local, capture)
	defer sched.Close()
	sched.Rearm(context.Background(), now.Add(3500*time.Second), map[string]time.Time{"demo": target})

	fired := capture.reminders()
	if len(fired) != 1 {
		t.Fatalf("fired = %d reminders, want immediate fire on reopen", len(fired))
	}
	if !fired[0].Late {
		t.Error("reminder not marked late")
	}
	if len(sched.List()) != 0 {
		t.Error("fired schedule still persisted")
	}
}

func TestRearm_RecomputesAgainstMovedTarget(t *testing.T) {
	local := testLocal(t)
	now := time.Now()
	original := now.Add(30 * time.Minute)

	sched := NewScheduler(local, &captureAdapter{})
	err := sched.Set(context.Background(), Schedule{
		EventID:       "demo",
		Label:         "Launch soon",
		TargetInstant: original,
		LeadSeconds:   600,
	})
	if err != nil {
		t.Fatal(err)
	}
	sched.Close()

	// Mission slipped two hours; the persisted schedule must follow.
	slipped := original.Add(2 * time.Hour)
	capture := &captureAdapter{}
	sched2 := NewScheduler(local, capture)
	defer sched2.Close()
	sched2.Rearm(context.Background(), now, map[string]time.Time{"demo": slipped})

	if len(capture.reminders()) != 0 {
		t.Fatal("reminder fired despite slipped target")
	}
	list := sched2.List()
	if len(list) != 1 {
		t.Fatalf("List = %d entries, want 1", len(list))
	}
	if !list[0].TargetInstant.Equal(slipped) {
		t.Errorf("persisted target = %v, want slipped %v", list[0].TargetInstant, slipped)
	}
}

func TestCancel_RemovesScheduleIdempotently(t *testing.T) {
	local := testLocal(t)
	capture := &captureAdapter{}
	sched := NewScheduler(local, capture)
	defer sched.Close()

	err := sched.Set(context.Background(), Schedule{
		EventID:       "demo",
		Label:         "Launch soon",
		TargetInstant: time.Now().Add(time.Hour),
		LeadSeconds:   60,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := sched.Cancel("demo", "Launch soon"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(sched.List()) != 0 {
		t.Error("schedule still listed after cancel")
	}
	// Cancelling again is a no-op.
	if err := sched.Cancel("demo", "Launch soon"); err != nil {
		t.Errorf("second Cancel: %v", err)
	}
}

func TestTimer_FiresOnSchedule(t *testing.T) {
	local := testLocal(t)
	capture := &captureAdapter{}
	sched := NewScheduler(local, capture)
	defer sched.Close()

	// Zero lead: fires at the target itself, 50ms out.
	err := sched.Set(context.Background(), Schedule{
		EventID:       "demo",
		Label:         "Imminent",
		TargetInstant: time.Now().Add(50 * time.Millisecond),
		LeadSeconds:   0,
	})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(capture.reminders()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reminder never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if fired := capture.reminders(); fired[0].Late {
		t.Error("on-time reminder marked late")
	}
}

func TestLogAdapter_WritesReminder(t *testing.T) {
	var buf bytes.Buffer
	a := &LogAdapter{Out: &buf}
	err := a.Notify(context.Background(), Reminder{
		EventID:       "demo",
		Label:         "Launch soon",
		TargetInstant: time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(buf.String(), "Launch soon") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLogAdapter_ZeroValue(t *testing.T) {
	// The zero value is the fallback adapter when no tokens are configured;
	// it must deliver (to stdout) rather than panic on a nil writer.
	a := &LogAdapter{}
	err := a.Notify(context.Background(), Reminder{
		EventID:       "demo",
		Label:         "Launch soon",
		TargetInstant: time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
