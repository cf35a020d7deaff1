package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.level)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.level, err)
		}
		core := logger.Core()
		if !core.Enabled(tt.enabled) || core.Enabled(tt.skipped) {
			t.Fatalf("level %q: enabled=%t skipped=%t", tt.level, core.Enabled(tt.enabled), core.Enabled(tt.skipped))
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatal("expected error")
	}
}
