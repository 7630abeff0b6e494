package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)

	logger.Debug("hidden")
	logger.Info("frame analyzed", "faces", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "frame analyzed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["service"] != serviceName {
		t.Errorf("service = %v, want %v", entry["service"], serviceName)
	}
	if entry["faces"] != float64(2) {
		t.Errorf("faces = %v, want 2", entry["faces"])
	}
}

func TestNewLogger_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("development", &buf)

	logger.Debug("cascade loaded")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") {
		t.Errorf("expected debug level in %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("expected source attribute in %q", out)
	}
}
