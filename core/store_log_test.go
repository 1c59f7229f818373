package core

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) entries(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(c.buf.Bytes()))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("parse log entry %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func logMessage(entry map[string]any) string {
	if value, ok := entry["message"].(string); ok {
		return value
	}
	if value, ok := entry["msg"].(string); ok {
		return value
	}
	return ""
}

func TestStoreLogsCarryTabField(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	store := NewStore(newMemSlot(), Deps{Logger: logger})
	id := store.CreateQueryTab("scratch", "")
	store.SwitchTo(id)
	store.Close(id)

	wantMessages := map[string]bool{
		"session tab created":   false,
		"session tab activated": false,
		"session tab closed":    false,
	}
	for _, entry := range capture.entries(t) {
		msg := logMessage(entry)
		if _, wanted := wantMessages[msg]; !wanted {
			continue
		}
		if entry["tab"] != string(id) {
			t.Fatalf("entry %q missing tab field: %+v", msg, entry)
		}
		wantMessages[msg] = true
	}
	for msg, seen := range wantMessages {
		if !seen {
			t.Fatalf("expected a %q log entry", msg)
		}
	}
}
