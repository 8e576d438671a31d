package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger := New(true, path)
	logger.Debug("debug entry")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log file to contain entries")
	}
}

func TestNew_InfoLevelDropsDebug(t *testing.T) {
	logger := New(false, "")
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level disabled without DEBUG")
	}
}
