package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/jasperwreed/pixel-chat/internal/storage"
)

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "test-searcher-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := storage.NewSQLiteStore(storage.DefaultConfig(filepath.Join(tempDir, "test.db")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSearcher(t *testing.T) {
	store := newStore(t)

	searcher := NewSearcher(store)
	if searcher == nil {
		t.Error("NewSearcher() returned nil")
	}
	if searcher.store != store {
		t.Error("NewSearcher() did not set store correctly")
	}
}

func TestSearcher_EmptyDatabase(t *testing.T) {
	searcher := NewSearcher(newStore(t))

	results, err := searcher.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 0 {
		t.Errorf("Search() in empty database returned %d results, want 0", len(results))
	}
}

func TestSearcher_SearchWithFilters(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	current := start
	store.SetClock(func() time.Time {
		current = current.Add(time.Hour)
		return current
	})

	addConversation := func(session, content string) *models.Conversation {
		t.Helper()
		conv, err := store.CreateConversation(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.AddMessage(ctx, conv.ID, models.ChatMessage{Type: models.MessageUser, Content: content}); err != nil {
			t.Fatal(err)
		}
		if session != "" {
			if _, err := store.UpdateConversation(ctx, conv.ID, models.ConversationUpdate{ServerSessionID: &session}); err != nil {
				t.Fatal(err)
			}
		}
		return conv
	}

	old := addConversation("s1", "sunset over the harbor")
	cutoff := current.Add(time.Minute)
	recent := addConversation("s2", "sunset in the mountains")

	searcher := NewSearcher(store)

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{name: "no filters", filters: Filters{}, want: []string{old.ID, recent.ID}},
		{name: "by session", filters: Filters{SessionID: "s1"}, want: []string{old.ID}},
		{name: "since", filters: Filters{Since: cutoff}, want: []string{recent.ID}},
		{name: "session and since", filters: Filters{SessionID: "s1", Since: cutoff}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := searcher.SearchWithFilters(ctx, "sunset", 10, tt.filters)
			if err != nil {
				t.Fatalf("SearchWithFilters() error = %v", err)
			}

			got := map[string]bool{}
			for _, r := range results {
				got[r.Conversation.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SearchWithFilters() returned %d conversations, want %d", len(got), len(tt.want))
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("Expected conversation %s in results", id)
				}
			}
		})
	}
}

func TestFilters_IsZero(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{name: "empty", filters: Filters{}, want: true},
		{name: "session", filters: Filters{SessionID: "s1"}, want: false},
		{name: "since", filters: Filters{Since: time.Now()}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}
