// Package logging builds the zap logger used by the detgeo command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/detgeo/pkg/config"
)

// New returns a logger configured from cfg. Verbose forces debug level.
func New(cfg config.Logging, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if cfg.Format != "json" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.Sampling = nil
	}
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = !verbose

	return zc.Build()
}
