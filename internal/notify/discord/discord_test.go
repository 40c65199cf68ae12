package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/avelar/launchdeck/internal/notify"
)

// mockSession records sent embeds.
type mockSession struct {
	opened  bool
	closed  bool
	openErr error
	sendErr error
	embeds  []*discordgo.MessageEmbed
	channel string
}

func (m *mockSession) Open() error  { m.opened = true; return m.openErr }
func (m *mockSession) Close() error { m.closed = true; return nil }
func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.channel = channelID
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{}, nil
}

func testReminder() notify.Reminder {
	return notify.Reminder{
		EventID:       "demo",
		Label:         "Launch soon",
		TargetInstant: time.Date(2026, 9, 12, 14, 30, 0, 0, time.UTC),
		LeadSeconds:   600,
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(AdapterOpts{BotToken: "tok"}); err == nil {
		t.Error("expected error for missing channel")
	}
	if _, err := New(AdapterOpts{ChannelID: "c1"}); err == nil {
		t.Error("expected error for missing token and session")
	}
}

func TestNotify_SendsEmbed(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "c1", Session: mock})
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Notify(context.Background(), testReminder()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !mock.opened {
		t.Error("session never opened")
	}
	if mock.channel != "c1" || len(mock.embeds) != 1 {
		t.Fatalf("sent to %q, %d embeds", mock.channel, len(mock.embeds))
	}
	if mock.embeds[0].Footer != nil {
		t.Error("on-time reminder carries a late footer")
	}

	// Second delivery reuses the open session.
	if err := a.Notify(context.Background(), testReminder()); err != nil {
		t.Fatal(err)
	}
	if len(mock.embeds) != 2 {
		t.Errorf("embeds = %d, want 2", len(mock.embeds))
	}
}

func TestNotify_LateFooter(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "c1", Session: mock})
	if err != nil {
		t.Fatal(err)
	}
	r := testReminder()
	r.Late = true
	if err := a.Notify(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if mock.embeds[0].Footer == nil {
		t.Error("late reminder missing footer")
	}
}

func TestNotify_ErrorsPropagate(t *testing.T) {
	mock := &mockSession{openErr: errors.New("gateway down")}
	a, err := New(AdapterOpts{ChannelID: "c1", Session: mock})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Notify(context.Background(), testReminder()); err == nil {
		t.Error("expected open error to propagate")
	}

	mock = &mockSession{sendErr: errors.New("missing permissions")}
	a, _ = New(AdapterOpts{ChannelID: "c1", Session: mock})
	if err := a.Notify(context.Background(), testReminder()); err == nil {
		t.Error("expected send error to propagate")
	}
}

func TestClose_Idempotent(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "c1", Session: mock})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close before connect: %v", err)
	}
	if err := a.Notify(context.Background(), testReminder()); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
