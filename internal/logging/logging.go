// Package logging builds the process-wide zap logger. Every component
// takes a *zap.Logger explicitly at construction time; nothing in
// internal/ reads a package-level global.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for the given level string ("debug", "info",
// "warn", "error", or any other level name zap recognizes; an
// unrecognized string falls back to "info"). mode selects the
// encoder: "production" gets JSON output suited to log aggregation,
// anything else gets the colorized console encoder used in local dev.
func New(mode, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if mode == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}

	return cfg.Build()
}
