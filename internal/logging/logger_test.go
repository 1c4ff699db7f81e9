package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vizier.log")
	log, err := New(Options{Path: path, Level: "debug"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.With("exercise", "anaglyph").Info("session ended", "username", "jdoe", "trials", 5)
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"session ended"`) || !strings.Contains(out, `"exercise":"anaglyph"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "jdoe") || !strings.Contains(out, "hash:") {
		t.Fatalf("expected username hashed, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	for _, raw := range []string{"", "info", "DEBUG", "warn", "error"} {
		if _, err := ParseLevel(raw); err != nil {
			t.Fatalf("level %q: %v", raw, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestEmptyPathIsNop(t *testing.T) {
	log, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Error("dropped")
}
