package main

import (
	"strings"
	"testing"

	"github.com/avelar/launchdeck/internal/config"
	"github.com/avelar/launchdeck/internal/db"
	"github.com/avelar/launchdeck/internal/eventlog"
)

func TestSeed(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	out, err := runCommand(t, "seed", "--config", cfgPath)
	if err != nil {
		t.Fatalf("seed failed: %v\noutput: %s", err, out)
	}
	if !strings.Contains(out, "Created poll") {
		t.Errorf("expected poll creation in output, got: %s", out)
	}
	if !strings.Contains(out, "seeded successfully") {
		t.Errorf("expected success message, got: %s", out)
	}

	// Verify through the store.
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		t.Fatal(err)
	}
	store := eventlog.NewStore(gormDB, limiterFromConfig(cfg))

	polls, err := store.ReadPolls(cfg.Event.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(polls) != 1 {
		t.Fatalf("polls = %d, want 1", len(polls))
	}
	if len(polls[0].Options) != 3 {
		t.Errorf("poll options = %d, want 3", len(polls[0].Options))
	}

	adv, err := store.ReadWeather(cfg.Event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if adv == nil || adv.Status != "go" {
		t.Errorf("weather = %+v, want status go", adv)
	}

	msgs, err := store.ReadChat(cfg.Event.ID, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Errorf("chat messages = %d, want 3", len(msgs))
	}
}

func TestSeed_MissingConfig(t *testing.T) {
	_, err := runCommand(t, "seed", "--config", "/nonexistent/launchdeck.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
