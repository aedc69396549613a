// Package chat drives a conversation with the remote agent: it owns the live
// transcript, the backend session id and the merging of polled system
// events.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jasperwreed/pixel-chat/internal/api"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

const (
	DefaultTimeout = 120 * time.Second
	DefaultTopK    = 10

	// ErrorPrefix marks agent messages that report a failed send.
	ErrorPrefix = "❌ "
)

// Agent is the subset of the backend the controller talks to.
type Agent interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	CreateSession(ctx context.Context, userID string) (string, error)
	SessionEvents(ctx context.Context, sessionID string) ([]api.SessionEvent, error)
}

// ImageLinker resolves an image id to a URL that serves it.
type ImageLinker interface {
	ImageURL(id string) string
}

// SessionPersister keeps the session id across process restarts.
type SessionPersister interface {
	Load() (string, error)
	Save(sessionID string) error
	Clear() error
}

// Recorder receives every message appended while a conversation is
// attached. *storage.SQLiteStore satisfies it.
type Recorder interface {
	AddMessage(ctx context.Context, conversationID string, msg models.ChatMessage) error
	UpdateConversation(ctx context.Context, id string, update models.ConversationUpdate) (*models.Conversation, error)
}

type Options struct {
	Timeout  time.Duration
	TopK     int
	Recorder Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

type Controller struct {
	agent     Agent
	linker    ImageLinker
	persister SessionPersister
	recorder  Recorder
	logger    *slog.Logger
	timeout   time.Duration
	topK      int
	now       func() time.Time

	mu        sync.Mutex
	sessionID string
	messages  []models.ChatMessage
	loading   bool
	lastErr   error
	processed map[string]struct{}

	// Attached conversation, if any, and the session it is linked to.
	conversationID string
	linkedSession  string

	// epoch changes whenever the transcript is replaced, so results of
	// requests started before that are dropped.
	epoch uint64
}

// New creates a controller and restores the persisted session id.
func New(agent Agent, linker ImageLinker, persister SessionPersister, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{
		agent:     agent,
		linker:    linker,
		persister: persister,
		recorder:  opts.Recorder,
		logger:    opts.Logger.With("component", "chat"),
		timeout:   opts.Timeout,
		topK:      opts.TopK,
		now:       opts.Now,
		messages:  []models.ChatMessage{},
		processed: make(map[string]struct{}),
	}

	if persister != nil {
		id, err := persister.Load()
		if err != nil {
			c.logger.Warn("failed to restore session id", "error", err)
		}
		c.sessionID = id
	}

	return c
}

// SendMessage appends the user's query to the transcript, asks the agent
// and appends its answer. Failures become an agent message starting with
// ErrorPrefix; they are also available through Err. An empty query, or a
// call while another send is in flight, does nothing.
func (c *Controller) SendMessage(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.lastErr = nil
	user := models.ChatMessage{
		ID:        uuid.NewString(),
		Type:      models.MessageUser,
		Content:   query,
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, user)
	sessionID := c.sessionID
	convID := c.conversationID
	epoch := c.epoch
	c.mu.Unlock()

	c.record(ctx, convID, user)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.agent.Chat(reqCtx, api.ChatRequest{
		Query:     query,
		SessionID: sessionID,
		TopK:      c.topK,
	})
	if err != nil {
		c.fail(ctx, epoch, err)
		return
	}

	c.succeed(ctx, epoch, resp)
}

func (c *Controller) succeed(ctx context.Context, epoch uint64, resp *api.ChatResponse) {
	var images []models.ImageResult
	for _, img := range resp.Images {
		img.PreviewURL = c.linker.ImageURL(img.ID)
		images = append(images, img)
	}

	agent := models.ChatMessage{
		ID:          uuid.NewString(),
		Type:        models.MessageAgent,
		Content:     resp.Answer,
		Images:      images,
		Suggestions: resp.Suggestions,
		Timestamp:   parseTimestamp(resp.Timestamp, c.now),
	}

	c.mu.Lock()
	c.loading = false
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("dropping answer for replaced transcript")
		return
	}
	adopted := resp.SessionID != "" && resp.SessionID != c.sessionID
	if adopted {
		c.sessionID = resp.SessionID
	}
	link := c.conversationID != "" && resp.SessionID != "" && resp.SessionID != c.linkedSession
	if link {
		c.linkedSession = resp.SessionID
	}
	c.messages = append(c.messages, agent)
	convID := c.conversationID
	c.mu.Unlock()

	if adopted {
		c.logger.Info("adopted session", "session_id", resp.SessionID)
		c.persistSession(resp.SessionID)
	}
	if link {
		c.linkConversation(ctx, convID, resp.SessionID)
	}
	c.record(ctx, convID, agent)
}

func (c *Controller) fail(ctx context.Context, epoch uint64, err error) {
	c.logger.Warn("chat request failed", "error", err)

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Type:      models.MessageAgent,
		Content:   ErrorPrefix + describeError(err),
		Timestamp: c.now(),
	}

	c.mu.Lock()
	c.loading = false
	c.lastErr = err
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.messages = append(c.messages, msg)
	convID := c.conversationID
	c.mu.Unlock()

	c.record(ctx, convID, msg)
}

// describeError turns a send failure into the text shown to the user.
func describeError(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		api.IsKind(err, api.KindTimeout):
		return "Request timed out: the search can be slow on first load or while embeddings are generated. Please try again in a moment."
	case api.IsKind(err, api.KindMalformed):
		return "The server returned an unexpected response. Please reload and try again."
	case errors.As(err, &apiErr) && apiErr.Kind == api.KindServer:
		if apiErr.Message != "" {
			return "Server error: " + apiErr.Message
		}
		return "Server error: the request failed with status " + httpStatus(apiErr.Status)
	case api.IsKind(err, api.KindNetwork):
		return "Network error: could not reach the server."
	default:
		return "Failed to send: " + err.Error()
	}
}

// NewSession asks the backend for a fresh session and adopts it. The
// transcript is kept.
func (c *Controller) NewSession(ctx context.Context) (string, error) {
	id, err := c.agent.CreateSession(ctx, "")
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.sessionID = id
	c.processed = make(map[string]struct{})
	c.mu.Unlock()

	c.persistSession(id)
	return id, nil
}

// Attach replaces the transcript with a stored conversation and records
// every later message to it. The conversation's session, when it has one,
// becomes the held session.
func (c *Controller) Attach(conv *models.Conversation) {
	c.mu.Lock()
	c.epoch++
	c.conversationID = conv.ID
	c.linkedSession = conv.ServerSessionID
	c.messages = slices.Clone(conv.Messages)
	if c.messages == nil {
		c.messages = []models.ChatMessage{}
	}
	c.processed = make(map[string]struct{})
	for _, m := range c.messages {
		if m.Type == models.MessageSystem && m.EventID != "" {
			c.processed[m.EventID] = struct{}{}
		}
	}
	c.lastErr = nil
	adopted := conv.ServerSessionID != "" && conv.ServerSessionID != c.sessionID
	if adopted {
		c.sessionID = conv.ServerSessionID
	}
	c.mu.Unlock()

	if adopted {
		c.persistSession(conv.ServerSessionID)
	}
}

// ClearHistory forgets the session id, here and in the persister, empties
// the transcript and detaches from the conversation. Stored conversations
// are left alone.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	c.epoch++
	c.sessionID = ""
	c.messages = []models.ChatMessage{}
	c.processed = make(map[string]struct{})
	c.lastErr = nil
	c.conversationID = ""
	c.linkedSession = ""
	c.mu.Unlock()

	if c.persister != nil {
		if err := c.persister.Clear(); err != nil {
			c.logger.Warn("failed to clear persisted session id", "error", err)
		}
	}
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last send, or nil if it succeeded.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ConversationID returns the attached conversation, or "".
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

func (c *Controller) persistSession(id string) {
	if c.persister == nil {
		return
	}
	if err := c.persister.Save(id); err != nil {
		c.logger.Warn("failed to persist session id", "session_id", id, "error", err)
	}
}

func (c *Controller) linkConversation(ctx context.Context, convID, sessionID string) {
	if c.recorder == nil || convID == "" {
		return
	}
	if _, err := c.recorder.UpdateConversation(ctx, convID, models.ConversationUpdate{ServerSessionID: &sessionID}); err != nil {
		c.logger.Warn("failed to link conversation to session", "conversation_id", convID, "error", err)
	}
}

// record writes msg through to the attached conversation. Failures are
// logged and never reach the chat flow.
func (c *Controller) record(ctx context.Context, convID string, msg models.ChatMessage) {
	if c.recorder == nil || convID == "" {
		return
	}
	// A timed-out send still records its error bubble.
	ctx = context.WithoutCancel(ctx)
	if err := c.recorder.AddMessage(ctx, convID, msg); err != nil {
		c.logger.Warn("failed to record message", "conversation_id", convID, "message_id", msg.ID, "error", err)
	}
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO form the backend
// sometimes emits, falling back to now.
func parseTimestamp(s string, now func() time.Time) time.Time {
	if s == "" {
		return now()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now()
}
