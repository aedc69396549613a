package api

import (
	"context"
	"net/url"
)

// Chat sends one query to the agent. A 2xx answer without a string
// session_id or answer is reported as KindMalformed.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var wire chatResponseWire
	if err := c.postJSON(ctx, "/agent/chat", req, &wire); err != nil {
		return nil, err
	}

	if wire.SessionID == nil {
		return nil, malformed("missing session_id")
	}
	if wire.Answer == nil {
		return nil, malformed("missing answer")
	}

	resp := &ChatResponse{
		SessionID:      *wire.SessionID,
		Answer:         *wire.Answer,
		Intent:         wire.Intent,
		OptimizedQuery: wire.OptimizedQuery,
		Suggestions:    wire.Suggestions,
		Timestamp:      wire.Timestamp,
	}
	if wire.Results != nil {
		resp.Images = wire.Results.Images
		resp.Total = wire.Results.Total
	}

	return resp, nil
}

// CreateSession asks the backend for a fresh session id. userID may be
// empty.
func (c *Client) CreateSession(ctx context.Context, userID string) (string, error) {
	var payload any
	if userID != "" {
		payload = userID
	}

	var wire createSessionWire
	if err := c.postJSON(ctx, "/agent/session/create", payload, &wire); err != nil {
		return "", err
	}
	if wire.SessionID == nil || *wire.SessionID == "" {
		return "", malformed("missing session_id")
	}

	return *wire.SessionID, nil
}

// SessionEvents returns the event log of a session in server order.
func (c *Client) SessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	var wire sessionEventsWire
	if err := c.getJSON(ctx, "/agent/session/"+url.PathEscape(sessionID)+"/events", nil, &wire); err != nil {
		return nil, err
	}
	if wire.Events == nil {
		return []SessionEvent{}, nil
	}
	return wire.Events, nil
}
