package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupJSONEmitsParsableLines(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info", "json")
	logger.Info("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
}

func TestSetupTextProducesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info", "text")
	logger.Info("hello")

	if buf.Len() == 0 {
		t.Error("expected non-empty text output")
	}
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "not-a-level", "json")
	logger.Debug("should not appear")
	logger.Info("should appear")

	if buf.Len() == 0 {
		t.Fatal("expected info-level output")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "should appear" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestSetupInstallsDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info", "json")
	if slog.Default() != logger {
		t.Error("Setup should install the logger as slog.Default()")
	}
}
