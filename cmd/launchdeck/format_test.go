package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/models"
	"github.com/avelar/launchdeck/internal/phase"
	"github.com/avelar/launchdeck/internal/syncclient"
	"github.com/avelar/launchdeck/internal/telemetry"
)

func sampleSnapshot() syncclient.Snapshot {
	ts := time.Date(2026, 9, 12, 14, 28, 30, 0, time.UTC)
	return syncclient.Snapshot{
		At:             ts,
		ElapsedSeconds: -90,
		TMinus:         "T-00:01:30",
		Phase: phase.Status{
			Index:    1,
			Phase:    phase.Phase{ID: "terminal-count", Label: "Terminal Count", Icon: "⏱"},
			Next:     phase.Phase{ID: "liftoff", Label: "Liftoff"},
			Progress: 0.75,
		},
		Telemetry: telemetry.Point{
			TElapsed:         -90,
			FuelRemainingPct: 100,
		},
		Chat: []syncclient.ChatEntry{
			{Confirmed: &models.ChatMessage{ID: 1, Handle: "mission-control", Body: "Range is green.", CreatedAt: ts}},
			{Provisional: &syncclient.ProvisionalChat{LocalID: "abc", Handle: "viewer", Body: "Go baby go", PendingSince: ts}},
		},
		ReactionTotals: map[string]int64{"🚀": 12, "🔥": 30, "❤️": 12},
		Polls: []eventlog.PollView{
			{
				ID:       1,
				Question: "Landing?",
				Open:     true,
				Voted:    true, VotedPosition: 2,
				Options: []eventlog.OptionView{
					{Position: 1, Label: "Yes", Votes: 10},
					{Position: 2, Label: "No", Votes: 4},
				},
			},
		},
		Weather: &models.WeatherAdvisory{Status: "watch", Summary: "Anvil cloud rule marginal", WindKts: 18},
	}
}

func TestRenderSnapshot(t *testing.T) {
	buf := new(bytes.Buffer)
	renderSnapshot(buf, sampleSnapshot())
	out := buf.String()

	for _, want := range []string{
		"T-00:01:30",
		"Terminal Count",
		"next: Liftoff (75%)",
		"WX [WATCH]",
		"mission-control: Range is green.",
		"Go baby go (sending...)",
		"Poll 1 (open): Landing?",
		" * 2. No — 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSnapshot_CooldownAndRejection(t *testing.T) {
	snap := sampleSnapshot()
	snap.CooldownSeconds = 4
	snap.LastRejection = "chat body is empty"

	buf := new(bytes.Buffer)
	renderSnapshot(buf, snap)
	out := buf.String()

	if !strings.Contains(out, "[writes paused 4s]") {
		t.Errorf("missing cooldown banner:\n%s", out)
	}
	if !strings.Contains(out, "[rejected: chat body is empty]") {
		t.Errorf("missing rejection banner:\n%s", out)
	}
}

func TestRenderLine(t *testing.T) {
	snap := sampleSnapshot()
	line := renderLine(snap)

	if !strings.HasPrefix(line, "T-00:01:30") {
		t.Errorf("line should start with the clock, got: %s", line)
	}
	if !strings.Contains(line, "chat=2") {
		t.Errorf("line missing chat count: %s", line)
	}
	if !strings.Contains(line, "wx=watch") {
		t.Errorf("line missing weather status: %s", line)
	}
	if strings.Contains(line, "MAX-Q") {
		t.Errorf("line should not flag max-q at rest: %s", line)
	}

	snap.Telemetry.MaxQ = true
	if !strings.Contains(renderLine(snap), "MAX-Q") {
		t.Error("line should flag max-q when set")
	}
}

func TestFormatReactions_Ordering(t *testing.T) {
	got := formatReactions(map[string]int64{"🚀": 12, "🔥": 30, "❤️": 12})
	// Descending by count, ties broken by emoji for stable output.
	if !strings.HasPrefix(got, "🔥 30") {
		t.Errorf("highest count should lead, got: %s", got)
	}
	if formatReactions(nil) != "" {
		t.Error("empty totals should render as empty string")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 200); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := strings.Repeat("x", 300)
	got := truncate(long, 200)
	if len(got) != 200 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate long: len=%d suffix=%q", len(got), got[len(got)-3:])
	}
}
