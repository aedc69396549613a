package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	sf := NewSessionFile(path)

	id, err := sf.Load()
	if err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if id != "" {
		t.Errorf("Load() = %q, want empty", id)
	}

	if err := sf.Save("s1"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := sf.Save("s2"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	id, err = NewSessionFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if id != "s2" {
		t.Errorf("Load() = %q, want %q", id, "s2")
	}

	if err := sf.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := sf.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
	if id, _ := sf.Load(); id != "" {
		t.Errorf("Load() after Clear = %q, want empty", id)
	}
}

func TestSessionFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("session_id: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewSessionFile(path).Load(); err == nil {
		t.Error("Load() should fail on a corrupt file")
	}
}
