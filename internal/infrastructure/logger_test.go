package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"admitcli/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}
	if GetLogger() != logger {
		t.Error("GetLogger did not return the initialized logger")
	}

	logger.Info("test message", "key", "value")
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(content, &logEntry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("Expected key='value', got %v", logEntry["key"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", logEntry["level"])
	}
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second initialization replaced the logger")
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, err := createLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "with trace")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["trace_id"] != "trace-123" {
		t.Errorf("Expected trace_id='trace-123', got %v", entry["trace_id"])
	}

	buf.Reset()
	logger.InfoContext(context.Background(), "without trace")
	if strings.Contains(buf.String(), "trace_id") {
		t.Error("trace_id present without a trace in context")
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		logDebug  bool
		logInfo   bool
		logWarn   bool
		logError  bool
	}{
		{"debug", true, true, true, true},
		{"info", false, true, true, true},
		{"warning", false, false, true, true},
		{"error", false, false, false, true},
		{"bogus", false, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := createLogger(config.LoggingConfig{Level: tt.level, Output: "console"}, &buf)
			if err != nil {
				t.Fatal(err)
			}

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")

			out := buf.String()
			check := func(msg string, want bool) {
				if got := strings.Contains(out, msg); got != want {
					t.Errorf("%s logged=%v, want %v", msg, got, want)
				}
			}
			check("debug message", tt.logDebug)
			check("info message", tt.logInfo)
			check("warn message", tt.logWarn)
			check("error message", tt.logError)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	if id == "" {
		t.Fatal("EnsureTraceID did not set a trace ID")
	}
	if got := GetTraceID(EnsureTraceID(ctx)); got != id {
		t.Errorf("EnsureTraceID replaced an existing trace ID: %s != %s", got, id)
	}
	if GenerateTraceID() == GenerateTraceID() {
		t.Error("GenerateTraceID returned duplicates")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := createLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	WithComponent(logger, "pipeline").Info("hello")
	if !strings.Contains(buf.String(), `"component":"pipeline"`) {
		t.Errorf("component attribute missing: %s", buf.String())
	}
}
