// Package slack delivers launch reminders to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/avelar/launchdeck/internal/notify"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements notify.Adapter for Slack.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post reminders to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &Adapter{client: client, channelID: opts.ChannelID}, nil
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "slack" }

// Notify posts the reminder as an attachment.
func (a *Adapter) Notify(ctx context.Context, r notify.Reminder) error {
	attachment := slackapi.Attachment{
		Color: "#36a64f",
		Title: fmt.Sprintf(":rocket: %s", r.Label),
		Text:  fmt.Sprintf("T-0 at %s", r.TargetInstant.UTC().Format(time.RFC1123)),
		Fields: []slackapi.AttachmentField{
			{Title: "Event", Value: r.EventID, Short: true},
			{Title: "Lead", Value: (time.Duration(r.LeadSeconds) * time.Second).String(), Short: true},
		},
	}
	if r.Late {
		attachment.Footer = "delivered late: device was offline at the scheduled time"
	}
	_, _, err := a.client.PostMessageContext(ctx, a.channelID,
		slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: send reminder: %w", err)
	}
	return nil
}
