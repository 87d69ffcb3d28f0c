package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestLogger_BasicLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	logger, err := New(logPath, LevelDebug)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warning message")
	logger.Error("error message")
	_ = logger.Close()

	content := readLog(t, logPath)
	for _, want := range []string{
		"DEBUG: debug message",
		"INFO: info message",
		"WARN: warning message",
		"ERROR: error message",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	logger, err := New(logPath, LevelWarn)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warning message")
	_ = logger.Close()

	content := readLog(t, logPath)
	if strings.Contains(content, "DEBUG") || strings.Contains(content, "INFO") {
		t.Error("messages below the minimum level should be filtered")
	}
	if !strings.Contains(content, "WARN: warning message") {
		t.Error("warning message should be present")
	}
}

func TestLogger_FilePermissions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	logger, err := New(logPath, LevelInfo)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	logger.Info("test message")
	_ = logger.Close()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("stat log file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("log file permissions = %o, want %o", info.Mode().Perm(), 0600)
	}
}

func TestLogger_AppendMode(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	for _, msg := range []string{"first message", "second message"} {
		logger, err := New(logPath, LevelInfo)
		if err != nil {
			t.Fatalf("create logger: %v", err)
		}
		logger.Info(msg)
		_ = logger.Close()
	}

	content := readLog(t, logPath)
	if !strings.Contains(content, "first message") || !strings.Contains(content, "second message") {
		t.Error("append mode should keep both messages")
	}
}

func TestLogger_Disabled(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	logger, err := New(logPath, LevelInfo)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	logger.Info("enabled message")
	logger.SetEnabled(false)
	logger.Info("disabled message")
	logger.SetEnabled(true)
	logger.Info("enabled again")
	_ = logger.Close()

	content := readLog(t, logPath)
	if strings.Contains(content, "disabled message") {
		t.Error("disabled logger must not write")
	}
	if !strings.Contains(content, "enabled message") || !strings.Contains(content, "enabled again") {
		t.Error("enabled messages should be present")
	}
}

func TestLogger_Writer(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	logger, err := New(logPath, LevelDebug)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	_, _ = logger.Writer(LevelInfo).Write([]byte("message from writer"))
	_ = logger.Close()

	if !strings.Contains(readLog(t, logPath), "message from writer") {
		t.Error("writer message not found in log")
	}
}

func TestLogger_NilReceivers(t *testing.T) {
	var logger *Logger
	logger.SetEnabled(true)
	logger.Debug("test")
	logger.Error("test")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger should return nil, got %v", err)
	}
}

func TestGlobalLogger_NilDefault(t *testing.T) {
	saved := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = saved }()

	Debug("test debug")
	Info("test info")
	Warn("test warn")
	Error("test error")

	if err := Close(); err != nil {
		t.Errorf("Close() with nil default should return nil, got %v", err)
	}
	if GetLogger() != nil {
		t.Error("GetLogger() should return nil before Init")
	}
}

func TestGlobalLogger_WithLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")

	logger, err := New(logPath, LevelDebug)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	saved := defaultLogger
	defaultLogger = logger
	defer func() { defaultLogger = saved }()

	Debug("debug message")
	Info("info message")
	if GetLogger() != logger {
		t.Error("GetLogger() should return the installed logger")
	}
	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content := readLog(t, logPath)
	if !strings.Contains(content, "debug message") || !strings.Contains(content, "info message") {
		t.Error("global helpers should write through the installed logger")
	}
}

func TestNew_MkdirAllError(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "afile")
	if err := os.WriteFile(filePath, nil, 0600); err != nil {
		t.Fatalf("create file: %v", err)
	}

	_, err := New(filepath.Join(filePath, "subdir", "trace.log"), LevelInfo)
	if err == nil {
		t.Fatal("New() should fail when the path contains a file as directory")
	}
	if !strings.Contains(err.Error(), "create log directory") {
		t.Errorf("error should mention directory creation, got: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelWarn},
		{"", LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}
