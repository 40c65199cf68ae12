package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelar/launchdeck/internal/eventlog"
)

// chatEvent holds data for a new-chat SSE event.
type chatEvent struct {
	ID      uint   `json:"id"`
	Handle  string `json:"handle"`
	Body    string `json:"body"`
	Pending int    `json:"pending"` // further messages behind this one in the same batch
}

// handleLive streams new chat messages over SSE by polling the store behind
// a lastSeenID cursor. The dashboard page uses this; the sync protocol
// itself stays polling-only.
func handleLive(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		eventID := c.Param("event")

		// Baseline at the current tail so we only push NEW messages.
		lastSeenID, _ := store.LastChatID(eventID)

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				msgs, err := store.ReadChat(eventID, lastSeenID, 50)
				if err != nil || len(msgs) == 0 {
					continue
				}
				lastSeenID = msgs[len(msgs)-1].ID

				latest := msgs[len(msgs)-1]
				writeSSE(c.Writer, "chat", chatEvent{
					ID:      latest.ID,
					Handle:  latest.Handle,
					Body:    latest.Body,
					Pending: len(msgs) - 1,
				})
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
