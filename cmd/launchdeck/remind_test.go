package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRemindSetListCancel(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)
	statePath := filepath.Join(dir, "state.json")

	out, err := runCommand(t, "remind", "set",
		"--config", cfgPath, "--state", statePath,
		"--label", "Go for launch", "--lead", "300")
	if err != nil {
		t.Fatalf("remind set failed: %v\noutput: %s", err, out)
	}
	if !strings.Contains(out, `Reminder "Go for launch" set`) {
		t.Errorf("unexpected set output: %s", out)
	}

	out, err = runCommand(t, "remind", "list", "--state", statePath)
	if err != nil {
		t.Fatalf("remind list failed: %v", err)
	}
	if !strings.Contains(out, "Go for launch") || !strings.Contains(out, "testflight") {
		t.Errorf("list missing schedule: %s", out)
	}

	out, err = runCommand(t, "remind", "cancel",
		"--config", cfgPath, "--state", statePath, "--label", "Go for launch")
	if err != nil {
		t.Fatalf("remind cancel failed: %v", err)
	}
	if !strings.Contains(out, "cancelled") {
		t.Errorf("unexpected cancel output: %s", out)
	}

	out, err = runCommand(t, "remind", "list", "--state", statePath)
	if err != nil {
		t.Fatalf("remind list failed: %v", err)
	}
	if !strings.Contains(out, "No reminders set.") {
		t.Errorf("expected empty list after cancel: %s", out)
	}
}

func TestRemindSet_NegativeLead(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)
	statePath := filepath.Join(dir, "state.json")

	_, err := runCommand(t, "remind", "set",
		"--config", cfgPath, "--state", statePath, "--lead", "-10")
	if err == nil {
		t.Fatal("expected error for negative lead")
	}
}

func TestRemindCmd_Help(t *testing.T) {
	out, err := runCommand(t, "remind", "--help")
	if err != nil {
		t.Fatalf("remind --help failed: %v", err)
	}
	for _, sub := range []string{"set", "cancel", "list", "run"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}
