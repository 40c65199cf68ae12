package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/avelar/launchdeck/internal/notify"
)

// mockClient records posted messages.
type mockClient struct {
	channels []string
	opts     [][]slackapi.MsgOption
	err      error
}

func (m *mockClient) PostMessageContext(_ context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	m.channels = append(m.channels, channelID)
	m.opts = append(m.opts, options)
	return channelID, "1726149000.000100", nil
}

func testReminder() notify.Reminder {
	return notify.Reminder{
		EventID:       "demo",
		Label:         "Hold for weather",
		TargetInstant: time.Date(2026, 9, 12, 14, 30, 0, 0, time.UTC),
		LeadSeconds:   300,
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(AdapterOpts{BotToken: "xoxb-1"}); err == nil {
		t.Error("expected error for missing channel")
	}
	if _, err := New(AdapterOpts{ChannelID: "C123"}); err == nil {
		t.Error("expected error for missing token and client")
	}
}

func TestNotify_PostsToChannel(t *testing.T) {
	mock := &mockClient{}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "slack" {
		t.Errorf("Name() = %q", a.Name())
	}
	if err := a.Notify(context.Background(), testReminder()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mock.channels) != 1 || mock.channels[0] != "C123" {
		t.Fatalf("posted to %v, want [C123]", mock.channels)
	}
}

func TestNotify_ErrorPropagates(t *testing.T) {
	mock := &mockClient{err: errors.New("channel_not_found")}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Notify(context.Background(), testReminder()); err == nil {
		t.Error("expected post error to propagate")
	}
}
