// Package app wires the long-lived pieces of the client together. One App
// is built per process and handed to whatever needs it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jasperwreed/pixel-chat/internal/api"
	"github.com/jasperwreed/pixel-chat/internal/chat"
	"github.com/jasperwreed/pixel-chat/internal/config"
	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/jasperwreed/pixel-chat/internal/state"
	"github.com/jasperwreed/pixel-chat/internal/storage"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	API     *api.Client
	Session *state.SessionFile

	store *storage.Lazy

	mu   sync.Mutex
	chat *chat.Controller
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		API:     api.New(cfg.APIURL, cfg.HTTPTimeout),
		Session: state.NewSessionFile(cfg.SessionFile()),
		store:   storage.NewLazy(storage.DefaultConfig(cfg.DBPath)),
	}
}

// Store opens the conversation database on first use.
func (a *App) Store(ctx context.Context) (*storage.SQLiteStore, error) {
	store, err := a.store.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// Chat returns the process-wide chat controller, recording to the
// conversation database. It is built on the first successful call.
func (a *App) Chat(ctx context.Context) (*chat.Controller, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chat != nil {
		return a.chat, nil
	}

	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	a.chat = chat.New(a.API, a.API, a.Session, chat.Options{
		Timeout:  a.Config.ChatTimeout,
		TopK:     a.Config.TopK,
		Recorder: store,
		Logger:   a.Logger,
	})
	return a.chat, nil
}

// OpenConversation attaches the chat controller to a stored conversation,
// or to a new one when id is empty.
func (a *App) OpenConversation(ctx context.Context, id string) (*chat.Controller, error) {
	ctrl, err := a.Chat(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}

	if id == "" {
		conv, err := store.CreateConversation(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		ctrl.Attach(conv)
		return ctrl, nil
	}

	conv, err := store.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	ctrl.Attach(conv)
	return ctrl, nil
}

// Resume attaches the chat controller to the conversation linked to the
// held session, or to a new conversation when no stored one is linked.
func (a *App) Resume(ctx context.Context) (*chat.Controller, error) {
	ctrl, linked, err := a.AttachLinked(ctx)
	if err != nil {
		return nil, err
	}
	if !linked {
		return a.OpenConversation(ctx, "")
	}
	return ctrl, nil
}

// AttachLinked attaches the chat controller to the conversation linked to
// the held session. It reports false and leaves the controller detached
// when no stored conversation is linked; nothing is written in that case.
func (a *App) AttachLinked(ctx context.Context) (*chat.Controller, bool, error) {
	ctrl, err := a.Chat(ctx)
	if err != nil {
		return nil, false, err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, false, err
	}

	conv, err := store.FindConversationBySession(ctx, ctrl.SessionID())
	if err != nil {
		return nil, false, fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv == nil {
		return ctrl, false, nil
	}
	ctrl.Attach(conv)
	return ctrl, true, nil
}

// KeepMessages stores messages in a new conversation linked to the held
// session and attaches the chat controller to it.
func (a *App) KeepMessages(ctx context.Context, messages []models.ChatMessage) (*models.Conversation, error) {
	ctrl, err := a.Chat(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}

	conv, err := store.CreateConversation(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if sessionID := ctrl.SessionID(); sessionID != "" {
		update := models.ConversationUpdate{ServerSessionID: &sessionID}
		if _, err := store.UpdateConversation(ctx, conv.ID, update); err != nil {
			return nil, fmt.Errorf("failed to link conversation: %w", err)
		}
	}
	for _, msg := range messages {
		if err := store.AddMessage(ctx, conv.ID, msg); err != nil {
			return nil, fmt.Errorf("failed to save message: %w", err)
		}
	}

	conv, err = store.GetConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	ctrl.Attach(conv)
	return conv, nil
}

// StartOver forgets the held session and attaches to a new conversation.
func (a *App) StartOver(ctx context.Context) (*chat.Controller, error) {
	ctrl, err := a.Chat(ctx)
	if err != nil {
		return nil, err
	}
	ctrl.ClearHistory()
	return a.OpenConversation(ctx, "")
}

func (a *App) Close() error {
	return a.store.Close()
}
