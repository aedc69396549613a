package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

type fakeStore struct {
	conversations map[string]*models.Conversation
	order         []string
	deleted       []string
}

func newFakeStore() *fakeStore {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &fakeStore{conversations: map[string]*models.Conversation{}}
	for _, c := range []*models.Conversation{
		{
			ID:    "c1",
			Title: "beach sunsets",
			Messages: []models.ChatMessage{
				{ID: "m1", Type: models.MessageUser, Content: "beach sunsets", Timestamp: now},
				{ID: "m2", Type: models.MessageAgent, Content: "Found 2 photos", Timestamp: now},
			},
			Preview:   "Found 2 photos",
			CreatedAt: now,
			UpdatedAt: now,
		},
		{ID: "c2", Title: "mountains", CreatedAt: now, UpdatedAt: now},
	} {
		s.conversations[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return s
}

func (s *fakeStore) ListConversations(ctx context.Context, filters models.ConversationFilters) ([]models.ConversationListItem, error) {
	var items []models.ConversationListItem
	for _, id := range s.order {
		c, ok := s.conversations[id]
		if !ok {
			continue
		}
		items = append(items, models.ConversationListItem{
			ID: c.ID, Title: c.Title, Preview: c.Preview, MessageCount: len(c.Messages),
			CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
		})
	}
	return items, nil
}

func (s *fakeStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return s.conversations[id], nil
}

func (s *fakeStore) DeleteConversation(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.conversations, id)
	return nil
}

func (s *fakeStore) SearchMessages(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	c := s.conversations["c1"]
	item := models.ConversationListItem{ID: c.ID, Title: c.Title}
	return []models.SearchResult{
		{Conversation: item, MessageID: "m1"},
		{Conversation: item, MessageID: "m2"},
	}, nil
}

func (s *fakeStore) GetStats(ctx context.Context) (*models.ConversationStats, error) {
	return &models.ConversationStats{
		TotalConversations: 2,
		TotalMessages:      2,
		TypeBreakdown:      map[models.MessageType]int{models.MessageUser: 1, models.MessageAgent: 1},
	}, nil
}

func loadedBrowser(t *testing.T, store ConversationStore) browserModel {
	t.Helper()
	m := newBrowserModel(context.Background(), store, "/tmp/conversations.db")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(browserModel)
	updated, _ = m.Update(m.Init()())
	return updated.(browserModel)
}

func TestBrowserLoadsAndShowsConversation(t *testing.T) {
	m := loadedBrowser(t, newFakeStore())

	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("list has %d items, want 2", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter should load the selected conversation")
	}
	updated, _ := m.Update(cmd())
	m = updated.(browserModel)

	if m.selectedConv == nil || m.selectedConv.ID != "c1" {
		t.Fatalf("selectedConv = %v, want c1", m.selectedConv)
	}
	if !strings.Contains(m.View(), "Found 2 photos") {
		t.Error("View should show the selected transcript")
	}
}

func TestBrowserOpenQuitsWithSelection(t *testing.T) {
	m := loadedBrowser(t, newFakeStore())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if got := updated.(browserModel).opened; got != "c1" {
		t.Errorf("opened = %q, want c1", got)
	}
	if cmd == nil {
		t.Fatal("o should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("o should return tea.Quit")
	}
}

func TestBrowserCommands(t *testing.T) {
	store := newFakeStore()
	m := loadedBrowser(t, store)

	t.Run("find groups by conversation", func(t *testing.T) {
		cmd := m.executeCommand("find sunsets")
		msg, ok := cmd().(conversationsMsg)
		if !ok {
			t.Fatal("find should return conversations")
		}
		if len(msg.items) != 1 || msg.items[0].ID != "c1" {
			t.Errorf("find items = %v, want [c1]", msg.items)
		}
		if !strings.Contains(msg.note, "2 matches in 1 conversations") {
			t.Errorf("note = %q", msg.note)
		}
	})

	t.Run("stats", func(t *testing.T) {
		content, ok := m.executeCommand("stats")().(contentMsg)
		if !ok {
			t.Fatal("stats should return content")
		}
		if !strings.Contains(string(content), "Conversations:   2") {
			t.Errorf("stats content = %q", content)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if cmd := m.executeCommand("frobnicate"); cmd != nil {
			t.Error("Unknown command should not return a command")
		}
		if !strings.Contains(m.statusMessage, "Unknown command") {
			t.Errorf("statusMessage = %q", m.statusMessage)
		}
	})

	t.Run("export and delete need a selection", func(t *testing.T) {
		m.selectedConv = nil
		if cmd := m.executeCommand("delete"); cmd != nil {
			t.Error("delete without selection should do nothing")
		}
		if cmd := m.executeCommand("export out.json"); cmd != nil {
			t.Error("export without selection should do nothing")
		}
	})

	t.Run("export", func(t *testing.T) {
		m.selectedConv = store.conversations["c1"]
		out := filepath.Join(t.TempDir(), "c1.json")
		if _, ok := m.executeCommand("export " + out)().(statusMsg); !ok {
			t.Fatal("export should return a status")
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"title": "beach sunsets"`) {
			t.Errorf("export = %s", data)
		}
	})

	t.Run("delete", func(t *testing.T) {
		m.selectedConv = store.conversations["c1"]
		msg, ok := m.executeCommand("delete")().(conversationsMsg)
		if !ok {
			t.Fatal("delete should reload the list")
		}
		if len(store.deleted) != 1 || store.deleted[0] != "c1" {
			t.Errorf("deleted = %v", store.deleted)
		}
		if len(msg.items) != 1 {
			t.Errorf("reloaded %d items, want 1", len(msg.items))
		}
		if m.selectedConv != nil {
			t.Error("Selection should be cleared after delete")
		}
	})
}
