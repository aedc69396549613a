package chat

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jasperwreed/pixel-chat/internal/api"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

// EventID is the dedup key of a session event: its timestamp joined with
// the event name, or the point cloud id when the event has no name.
func EventID(ev api.SessionEvent) string {
	discriminator := ev.Event
	if discriminator == "" {
		discriminator = ev.PointcloudID
	}
	return ev.Timestamp + "_" + discriminator
}

// PollSystemEvents fetches the event log of the held session and appends
// the events not seen before as system messages, in server order. It
// returns how many were added. Without a session it does nothing. Fetch
// errors are logged and otherwise ignored; the next poll retries.
func (c *Controller) PollSystemEvents(ctx context.Context) int {
	c.mu.Lock()
	sessionID := c.sessionID
	epoch := c.epoch
	c.mu.Unlock()

	if sessionID == "" {
		return 0
	}

	events, err := c.agent.SessionEvents(ctx, sessionID)
	if err != nil {
		c.logger.Warn("failed to poll session events", "session_id", sessionID, "error", err)
		return 0
	}

	c.mu.Lock()
	if c.sessionID != sessionID || c.epoch != epoch {
		c.mu.Unlock()
		return 0
	}
	var added []models.ChatMessage
	for _, ev := range events {
		id := EventID(ev)
		if _, seen := c.processed[id]; seen {
			continue
		}
		c.processed[id] = struct{}{}

		msg := c.eventMessage(ev, id)
		c.messages = append(c.messages, msg)
		added = append(added, msg)
	}
	convID := c.conversationID
	c.mu.Unlock()

	if len(added) > 0 {
		c.logger.Debug("merged session events", "session_id", sessionID, "count", len(added))
	}
	for _, msg := range added {
		c.record(ctx, convID, msg)
	}

	return len(added)
}

func (c *Controller) eventMessage(ev api.SessionEvent, id string) models.ChatMessage {
	content := ev.Content
	if content == "" {
		content = ev.Event
	}
	return models.ChatMessage{
		ID:           uuid.NewString(),
		Type:         models.MessageSystem,
		Content:      content,
		Timestamp:    parseTimestamp(ev.Timestamp, c.now),
		Event:        ev.Event,
		EventID:      id,
		PointcloudID: ev.PointcloudID,
		ViewURL:      ev.ViewURL,
	}
}

func httpStatus(code int) string {
	if text := http.StatusText(code); text != "" {
		return strconv.Itoa(code) + " " + text
	}
	return strconv.Itoa(code)
}
