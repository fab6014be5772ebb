package logging_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tracker-studio/internal/config"
	"tracker-studio/internal/logging"
)

func TestConsoleLoggerWritesKeyValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.With(slog.String("attempt_id", "a-1")).Info("render started", slog.String("file", "my clip.mp4"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "hidden") {
		t.Fatalf("expected debug line to be filtered, got %q", text)
	}
	if !strings.Contains(text, "INFO render started") {
		t.Fatalf("expected message, got %q", text)
	}
	if !strings.Contains(text, "attempt_id=a-1") || !strings.Contains(text, `file="my clip.mp4"`) {
		t.Fatalf("expected attrs, got %q", text)
	}
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("render failed", slog.String("kind", "connection_failed"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(content, &line); err != nil {
		t.Fatalf("parse json log: %v (%q)", err, content)
	}
	if line["level"] != "warn" || line["msg"] != "render failed" || line["kind"] != "connection_failed" {
		t.Fatalf("unexpected json line: %v", line)
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigInteractiveLogsToFileOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("studio opened")

	content, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, "tracker-studio.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "studio opened") {
		t.Fatalf("expected log line in file, got %q", content)
	}
}
