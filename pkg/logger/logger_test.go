package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("capture recorded",
		"password", "hunter2",
		"tracking_token", "abc123token",
		"smtp_password", "mailpass",
		"campaign_id", "42",
	)

	out := buf.String()
	for _, leaked := range []string{"hunter2", "abc123token", "mailpass"} {
		if strings.Contains(out, leaked) {
			t.Errorf("sensitive value %q leaked into log output", leaked)
		}
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("expected redaction marker in output")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["campaign_id"] != "42" {
		t.Errorf("non-sensitive field mangled: %v", entry["campaign_id"])
	}
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Error("info should be suppressed at warn level")
	}
	log.Warn("visible")
	if buf.Len() == 0 {
		t.Error("warn should be emitted at warn level")
	}
}

func TestNopLoggerSilent(t *testing.T) {
	log := NewNop()
	log.Error("nothing to see")
}
