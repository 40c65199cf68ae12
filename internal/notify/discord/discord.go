// Package discord delivers launch reminders to a Discord channel.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/avelar/launchdeck/internal/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}

// Adapter implements notify.Adapter for Discord.
type Adapter struct {
	sess      session
	channelID string

	mu        sync.Mutex
	connected bool
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post reminders to
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	sess := opts.Session
	if sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		real, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = &realSession{s: real}
	}
	return &Adapter{sess: sess, channelID: opts.ChannelID}, nil
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "discord" }

// Notify posts the reminder as an embed. The session is opened lazily on the
// first delivery.
func (a *Adapter) Notify(_ context.Context, r notify.Reminder) error {
	if err := a.connect(); err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🚀 %s", r.Label),
		Description: fmt.Sprintf("T-0 at %s", r.TargetInstant.UTC().Format(time.RFC1123)),
		Color:       0x36a64f,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Event", Value: r.EventID, Inline: true},
			{Name: "Lead", Value: (time.Duration(r.LeadSeconds) * time.Second).String(), Inline: true},
		},
	}
	if r.Late {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "delivered late: device was offline at the scheduled time"}
	}
	if _, err := a.sess.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		return fmt.Errorf("discord: send reminder: %w", err)
	}
	return nil
}

// Close shuts down the underlying session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil
	}
	a.connected = false
	return a.sess.Close()
}

func (a *Adapter) connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connected {
		return nil
	}
	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	a.connected = true
	return nil
}
