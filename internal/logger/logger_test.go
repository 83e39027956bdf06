package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
)

func resetLogger() {
	defaultLogger = nil
	once = *new(sync.Once)
}

func TestInitWithFile(t *testing.T) {
	resetLogger()
	tempDir := t.TempDir()

	err := InitWithFile("debug", tempDir)
	if err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	defer Close()

	logPath := GetLogFilePath()
	if logPath == "" {
		t.Fatal("Expected log file path, got empty string")
	}

	Debug("test debug message")
	Info("test info message")
	Warn("test warn message")
	Error("test error message")

	Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	if !strings.Contains(logContent, "test debug message") {
		t.Error("Debug message not found in log file")
	}
	if !strings.Contains(logContent, "[WARN] test warn message") {
		t.Error("Warn message not found in log file")
	}
	if strings.Contains(logContent, "\033[") {
		t.Error("Log file contains ANSI color codes")
	}
	if filepath.Dir(logPath) != tempDir {
		t.Errorf("Log file not in expected directory: %s", logPath)
	}
}

func TestLogFilenameFormat(t *testing.T) {
	resetLogger()
	tempDir := t.TempDir()

	if err := InitWithFile("info", tempDir); err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	defer Close()

	filename := filepath.Base(GetLogFilePath())
	if !strings.HasSuffix(filename, ".log") {
		t.Errorf("Log filename should end with .log: %s", filename)
	}
	parts := strings.Split(strings.TrimSuffix(filename, ".log"), "_")
	if len(parts) < 3 {
		t.Errorf("Log filename format incorrect: %s", filename)
	}
}

func TestLevelFiltering(t *testing.T) {
	resetLogger()
	var buf bytes.Buffer
	Init("warn")
	SetOutput(&buf)
	SetColorEnable(false)

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warn")
	Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below WARN should be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] shown warn") || !strings.Contains(out, "[ERROR] shown error") {
		t.Errorf("expected WARN and ERROR messages, got %q", out)
	}

	SetLevel("debug")
	Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Error("SetLevel(debug) should enable debug output")
	}
}

func TestColorOutput(t *testing.T) {
	resetLogger()
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	Init("info")
	SetOutput(&buf)

	Info("colored")
	if !strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected ANSI color codes, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
		{"fatal", FATAL},
		{"bogus", INFO},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
