package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("parse log entry %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func message(entry map[string]any) string {
	if msg, ok := entry["msg"].(string); ok {
		return msg
	}
	msg, _ := entry["message"].(string)
	return msg
}

func TestStructuredLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "entry", 3)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || message(entries[0]) != "shown" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestConsoleLoggerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Debug("replay entry delivered")
	if !strings.Contains(buf.String(), "replay entry delivered") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestVerboseLevel(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "warn"},
		{1, "debug"},
		{2, "trace"},
		{5, "trace"},
	}
	for _, tt := range tests {
		if got := VerboseLevel(tt.count, "warn"); got != tt.want {
			t.Fatalf("VerboseLevel(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}
