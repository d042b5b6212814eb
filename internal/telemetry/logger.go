package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger appends NDJSON event lines to a file. A logger built with an
// empty path discards everything, so call sites never nil-check.
type Logger struct {
	mu      sync.Mutex
	w       io.WriteCloser
	session string
}

func NewLogger(path, sessionID string) (*Logger, error) {
	if path == "" {
		return &Logger{w: nopCloser{Writer: io.Discard}, session: sessionID}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{w: f, session: sessionID}, nil
}

func (l *Logger) Event(name string, fields map[string]any) {
	l.log("info", name, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log("error", msg, fields)
}

func (l *Logger) log(level, msg string, fields map[string]any) {
	if l == nil || l.w == nil {
		return
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"event": msg,
	}
	if l.session != "" {
		entry["session"] = l.session
	}
	for k, v := range fields {
		entry[k] = v
	}
	b, _ := json.Marshal(entry)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
