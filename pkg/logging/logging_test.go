package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/chazu/detgeo/pkg/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Logging
		verbose bool
		want    zapcore.Level
	}{
		{"info console", config.Logging{Level: "info", Format: "console"}, false, zapcore.InfoLevel},
		{"warn json", config.Logging{Level: "warn", Format: "json"}, false, zapcore.WarnLevel},
		{"verbose overrides", config.Logging{Level: "error", Format: "console"}, true, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.verbose)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !logger.Core().Enabled(tt.want) {
				t.Fatalf("level %v not enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
				t.Fatalf("level %v unexpectedly enabled", tt.want-1)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.Logging{Level: "loud"}, false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
