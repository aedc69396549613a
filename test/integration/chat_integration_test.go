//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jasperwreed/pixel-chat/internal/cli"
)

// fakeBackend answers chat requests and serves one event per session.
type fakeBackend struct {
	mu       sync.Mutex
	sessions []string // session_id sent with each chat request
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/api/v1/agent/chat":
		var req struct {
			Query     string `json:"query"`
			SessionID string `json:"session_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		b.sessions = append(b.sessions, req.SessionID)
		b.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{
			"session_id": "s1",
			"answer":     "Results for " + req.Query,
			"results":    map[string]any{"total": 0, "images": []any{}},
			"timestamp":  "2024-01-01T00:00:00Z",
		})

	case strings.HasPrefix(r.URL.Path, "/api/v1/agent/session/"):
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]any{{
				"timestamp":     "2024-01-01T00:00:05Z",
				"event":         "pointcloud_ready",
				"content":       "Point cloud is ready",
				"pointcloud_id": "pc1",
				"view_url":      "http://viewer/pc1",
			}},
		})

	default:
		http.NotFound(w, r)
	}
}

func run(t *testing.T, dbPath, apiURL string, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	root := cli.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--api", apiURL}, args...))
	if err := root.Execute(); err != nil {
		t.Fatalf("pixel-chat %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestSessionSurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "test-chat-integration-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)
	t.Setenv("PIXELCHAT_DATA_DIR", tempDir)

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()
	apiURL := srv.URL + "/api/v1"
	dbPath := filepath.Join(tempDir, "conversations.db")

	out := run(t, dbPath, apiURL, "ask", "beach", "sunsets")
	if !strings.Contains(out, "Results for beach sunsets") {
		t.Errorf("First ask output: %s", out)
	}

	// Each command is a fresh process as far as the client is concerned.
	out = run(t, dbPath, apiURL, "ask", "with", "boats")
	if !strings.Contains(out, "Results for with boats") {
		t.Errorf("Second ask output: %s", out)
	}

	backend.mu.Lock()
	sessions := append([]string(nil), backend.sessions...)
	backend.mu.Unlock()
	if len(sessions) != 2 || sessions[0] != "" || sessions[1] != "s1" {
		t.Errorf("Backend saw sessions %q, want [\"\" \"s1\"]", sessions)
	}

	out = run(t, dbPath, apiURL, "events")
	if !strings.Contains(out, "Point cloud is ready") || !strings.Contains(out, "1 new event(s)") {
		t.Errorf("First poll output: %s", out)
	}
	out = run(t, dbPath, apiURL, "events")
	if !strings.Contains(out, "No new events.") {
		t.Errorf("Second poll should find nothing new: %s", out)
	}

	out = run(t, dbPath, apiURL, "list")
	if strings.Count(out, "Messages: 5") != 1 {
		t.Errorf("Expected one conversation with 5 messages, got: %s", out)
	}

	out = run(t, dbPath, apiURL, "find", "boats")
	if !strings.Contains(out, "Found 2 result(s)") {
		t.Errorf("find output: %s", out)
	}

	out = run(t, dbPath, apiURL, "session", "reset")
	if !strings.Contains(out, "Session forgotten") {
		t.Errorf("session reset output: %s", out)
	}
	out = run(t, dbPath, apiURL, "session", "show")
	if !strings.Contains(out, "No session held.") {
		t.Errorf("session show output: %s", out)
	}
}
