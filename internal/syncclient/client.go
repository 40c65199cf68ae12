// Package syncclient keeps a dashboard client converged on the server's
// event logs by polling: per-kind tickers, id-keyed idempotent merges, and an
// optimistic write buffer that reconciles against each authoritative
// snapshot. The clock, phase, and telemetry layers never touch the network.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/models"
)

// Client is a thin HTTP wrapper over the event-log API for one event. Every
// request carries a bounded timeout so a stuck call becomes a NetworkError
// instead of skipping the next tick.
type Client struct {
	base  string
	event string
	http  *http.Client
}

// NewClient creates a Client for the event at baseURL.
func NewClient(baseURL, eventID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		event: eventID,
		http:  &http.Client{Timeout: timeout},
	}
}

// EventID returns the event this client is bound to.
func (c *Client) EventID() string {
	return c.event
}

// FetchChat returns confirmed messages with id greater than afterID.
func (c *Client) FetchChat(ctx context.Context, afterID uint, limit int) ([]models.ChatMessage, error) {
	var out struct {
		Records []models.ChatMessage `json:"records"`
	}
	path := fmt.Sprintf("/chat?after=%d&limit=%d", afterID, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// FetchReactions returns the authoritative emoji totals.
func (c *Client) FetchReactions(ctx context.Context) (map[string]int64, error) {
	var out struct {
		Totals map[string]int64 `json:"totals"`
	}
	if err := c.get(ctx, "/reactions", &out); err != nil {
		return nil, err
	}
	return out.Totals, nil
}

// FetchPolls returns the poll snapshots, with voted state for actorID.
func (c *Client) FetchPolls(ctx context.Context, actorID string) ([]eventlog.PollView, error) {
	var out struct {
		Polls []eventlog.PollView `json:"polls"`
	}
	if err := c.get(ctx, "/polls?actor="+actorID, &out); err != nil {
		return nil, err
	}
	return out.Polls, nil
}

// FetchWeather returns the current advisory, or nil when none exists.
func (c *Client) FetchWeather(ctx context.Context) (*models.WeatherAdvisory, error) {
	var out struct {
		Advisory *models.WeatherAdvisory `json:"advisory"`
	}
	if err := c.get(ctx, "/weather", &out); err != nil {
		return nil, err
	}
	return out.Advisory, nil
}

// PostChat appends a chat message.
func (c *Client) PostChat(ctx context.Context, actor, handle, body string) (*models.ChatMessage, error) {
	var out struct {
		Record *models.ChatMessage `json:"record"`
	}
	req := map[string]string{"actor": actor, "handle": handle, "body": body}
	if err := c.post(ctx, http.MethodPost, "/chat", req, &out); err != nil {
		return nil, err
	}
	return out.Record, nil
}

// PostReaction records one emoji tap and returns the new authoritative total.
func (c *Client) PostReaction(ctx context.Context, actorOrSession, emoji string) (int64, error) {
	var out struct {
		Total int64 `json:"total"`
	}
	req := map[string]string{"session": actorOrSession, "emoji": emoji}
	if err := c.post(ctx, http.MethodPost, "/reactions", req, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

// PostVote casts the actor's vote for the option at position.
func (c *Client) PostVote(ctx context.Context, pollID uint, actor string, position int) error {
	req := map[string]any{"actor": actor, "position": position}
	path := fmt.Sprintf("/polls/%d/vote", pollID)
	return c.post(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return &NetworkError{Err: err}
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, method, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return &NetworkError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), bytes.NewReader(raw))
	if err != nil {
		return &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) url(path string) string {
	return c.base + "/api/events/" + c.event + path
}

// do executes the request and classifies failures into the write taxonomy.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var body struct {
			RetryAfterSeconds int `json:"retry_after_seconds"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.RetryAfterSeconds <= 0 {
			body.RetryAfterSeconds = 5
		}
		return &RateLimitedError{RetryAfter: time.Duration(body.RetryAfterSeconds) * time.Second}
	case resp.StatusCode == http.StatusConflict:
		return ErrAlreadyVoted
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusBadRequest:
		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Reason == "" {
			body.Reason = "request rejected"
		}
		return &InvalidWriteError{Reason: body.Reason}
	case resp.StatusCode >= 500:
		return &NetworkError{Err: fmt.Errorf("server returned %d", resp.StatusCode)}
	case resp.StatusCode >= 300:
		return &NetworkError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
