package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

type fakeSession struct {
	mu       sync.Mutex
	queries  []string
	messages []models.ChatMessage
	loading  bool
	session  string
	pending  []models.ChatMessage
}

func (f *fakeSession) SendMessage(ctx context.Context, query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.messages = append(f.messages,
		models.ChatMessage{ID: "u", Type: models.MessageUser, Content: query, Timestamp: time.Now()},
		models.ChatMessage{
			ID:          "a",
			Type:        models.MessageAgent,
			Content:     "Here are 3 photos",
			Images:      []models.ImageResult{{ID: "i1", Score: 0.9, Metadata: models.ImageMetadata{Filename: "a.jpg"}}},
			Suggestions: []string{"more like this"},
			Timestamp:   time.Now(),
		},
	)
	f.session = "s1"
}

func (f *fakeSession) PollSystemEvents(ctx context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.pending)
	f.messages = append(f.messages, f.pending...)
	f.pending = nil
	return n
}

func (f *fakeSession) NewSession(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = "s2"
	return f.session, nil
}

func (f *fakeSession) Messages() []models.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChatMessage(nil), f.messages...)
}

func (f *fakeSession) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeSession) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func sizedChat(t *testing.T, session ChatSession, opts ChatOptions) ChatModel {
	t.Helper()
	m := NewChatModel(context.Background(), session, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(ChatModel)
}

func TestChatSendRendersAnswer(t *testing.T) {
	session := &fakeSession{}
	m := sizedChat(t, session, ChatOptions{})

	if !strings.Contains(m.View(), "No messages yet") {
		t.Error("Empty transcript should show a hint")
	}

	m.input.SetValue("find beach sunset photos")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(ChatModel)
	if cmd == nil {
		t.Fatal("Enter should return a send command")
	}
	if m.input.Value() != "" {
		t.Errorf("Input should be cleared, got %q", m.input.Value())
	}

	msg := cmd()
	if _, ok := msg.(sendDoneMsg); !ok {
		t.Fatalf("Send command returned %T, want sendDoneMsg", msg)
	}
	if len(session.queries) != 1 || session.queries[0] != "find beach sunset photos" {
		t.Errorf("Queries = %v", session.queries)
	}

	updated, _ = m.Update(msg)
	m = updated.(ChatModel)

	view := m.View()
	for _, want := range []string{"find beach sunset photos", "Here are 3 photos", "a.jpg", "more like this", "session: s1"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestChatIgnoresEnterWhileLoading(t *testing.T) {
	session := &fakeSession{loading: true}
	m := sizedChat(t, session, ChatOptions{})

	m.input.SetValue("another")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("Enter while loading should not send")
	}
	if updated.(ChatModel).input.Value() != "another" {
		t.Error("Input should be kept while loading")
	}
	if !strings.Contains(updated.(ChatModel).View(), "Searching") {
		t.Error("Loading view should show the spinner line")
	}
}

func TestChatPollMergesEvents(t *testing.T) {
	session := &fakeSession{
		session: "s1",
		pending: []models.ChatMessage{{
			ID:        "e1",
			Type:      models.MessageSystem,
			Content:   "Point cloud ready",
			ViewURL:   "http://viewer/pc1",
			Timestamp: time.Now(),
		}},
	}
	m := sizedChat(t, session, ChatOptions{PollInterval: time.Millisecond})

	_, cmd := m.Update(pollTickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("Poll tick should return a poll command")
	}
	msg := cmd()
	done, ok := msg.(pollDoneMsg)
	if !ok || done.added != 1 {
		t.Fatalf("Poll returned %#v, want one added event", msg)
	}

	updated, next := m.Update(done)
	if next == nil {
		t.Error("Poll result should schedule the next poll")
	}
	view := updated.(ChatModel).View()
	if !strings.Contains(view, "Point cloud ready") || !strings.Contains(view, "http://viewer/pc1") {
		t.Error("View should show the merged event")
	}
}

func TestChatReset(t *testing.T) {
	t.Run("disabled without callback", func(t *testing.T) {
		m := sizedChat(t, &fakeSession{}, ChatOptions{})
		if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL}); cmd != nil {
			t.Error("ctrl+l should do nothing without a reset callback")
		}
	})

	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"success", nil, "History cleared"},
		{"failure", errors.New("disk full"), "Clear failed: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := sizedChat(t, &fakeSession{}, ChatOptions{Reset: func(ctx context.Context) error {
				called = true
				return tt.err
			}})

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
			if cmd == nil {
				t.Fatal("ctrl+l should return a reset command")
			}
			updated, _ := m.Update(cmd())
			if !called {
				t.Error("Reset callback was not called")
			}
			if got := updated.(ChatModel).status; got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
		})
	}
}

func TestChatNewSession(t *testing.T) {
	session := &fakeSession{session: "s1"}
	m := sizedChat(t, session, ChatOptions{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if cmd == nil {
		t.Fatal("ctrl+n should return a command")
	}
	updated, _ := m.Update(cmd())
	if got := updated.(ChatModel).status; got != "Session s2" {
		t.Errorf("status = %q, want %q", got, "Session s2")
	}
}
