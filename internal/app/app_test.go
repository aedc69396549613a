package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/config"
	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/jasperwreed/pixel-chat/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, apiURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		APIURL:        apiURL,
		HTTPTimeout:   2 * time.Second,
		ChatTimeout:   2 * time.Second,
		TopK:          10,
		PollInterval:  time.Second,
		DataDir:       dir,
		DBPath:        filepath.Join(dir, "conversations.db"),
		UploadWorkers: 1,
		LogFile:       filepath.Join(dir, "test.log"),
	}
}

func TestEndToEndConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/agent/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "s1",
			"answer":     "Here are 3 photos",
			"results": map[string]any{
				"total":  1,
				"images": []map[string]any{{"id": "i1", "score": 0.9, "metadata": map[string]any{"filename": "a.jpg"}}},
			},
			"suggestions": []string{"more like this"},
			"timestamp":   "2024-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	a := app.New(testConfig(t, srv.URL+"/api/v1"), nil)
	defer a.Close()

	ctrl, err := a.OpenConversation(ctx, "")
	require.NoError(t, err)
	convID := ctrl.ConversationID()
	require.NotEmpty(t, convID)

	ctrl.SendMessage(ctx, "find beach sunset photos")

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "find beach sunset photos", msgs[0].Content)
	assert.Equal(t, "Here are 3 photos", msgs[1].Content)
	require.Len(t, msgs[1].Images, 1)
	assert.Equal(t, srv.URL+"/api/v1/storage/images/i1", msgs[1].Images[0].PreviewURL)
	assert.Len(t, msgs[1].Suggestions, 1)

	saved, err := a.Session.Load()
	require.NoError(t, err)
	assert.Equal(t, "s1", saved)

	store, err := a.Store(ctx)
	require.NoError(t, err)
	conv, err := store.GetConversation(ctx, convID)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 2)
	assert.Equal(t, "s1", conv.ServerSessionID)
	assert.Equal(t, "Here are 3 photos", conv.Preview)

	same, err := a.Chat(ctx)
	require.NoError(t, err)
	assert.Same(t, ctrl, same)
}

func TestOpenMissingConversation(t *testing.T) {
	a := app.New(testConfig(t, "http://127.0.0.1:1/api/v1"), nil)
	defer a.Close()

	_, err := a.OpenConversation(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResumeAndStartOver(t *testing.T) {
	ctx := context.Background()
	a := app.New(testConfig(t, "http://127.0.0.1:1/api/v1"), nil)
	defer a.Close()

	store, err := a.Store(ctx)
	require.NoError(t, err)
	conv, err := store.CreateConversation(ctx, "linked")
	require.NoError(t, err)
	linked := "s-linked"
	_, err = store.UpdateConversation(ctx, conv.ID, models.ConversationUpdate{ServerSessionID: &linked})
	require.NoError(t, err)
	require.NoError(t, a.Session.Save("s-linked"))

	ctrl, err := a.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, ctrl.ConversationID())
	assert.Equal(t, "s-linked", ctrl.SessionID())

	ctrl, err = a.StartOver(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, conv.ID, ctrl.ConversationID())
	assert.Empty(t, ctrl.SessionID())
	assert.Empty(t, ctrl.Messages())

	saved, err := a.Session.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)
}
