package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	l, err := NewLogger(path, "sess-1")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Event("session_start", map[string]any{"domain": "lending"})
	l.Error("catalog_error", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["event"] != "session_start" || lines[0]["domain"] != "lending" || lines[0]["session"] != "sess-1" {
		t.Fatalf("unexpected first line: %v", lines[0])
	}
	if lines[1]["level"] != "error" {
		t.Fatalf("unexpected second line: %v", lines[1])
	}
}

func TestLoggerDiscardsWithoutPath(t *testing.T) {
	l, err := NewLogger("", "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Event("noop", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
