package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", FileConfig{}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hidden")
	l.Warn("shown", zap.Int("chunks", 4))
	_ = l.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "chunks") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", FileConfig{}, nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lodterrain.log")
	l, err := New("debug", DefaultFileConfig(path), nil)
	if err != nil {
		t.Fatal(err)
	}
	l.Named("terrain").Debug("ready")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "terrain") || !strings.Contains(string(data), "ready") {
		t.Errorf("log file = %q", data)
	}
}

func TestNoOutputIsNop(t *testing.T) {
	l, err := New("info", FileConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger without outputs is enabled")
	}
}

func TestDefaultLogIsUsableBeforeInit(t *testing.T) {
	Named("test").Info("discarded")
	Sync()
}
