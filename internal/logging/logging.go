// Package logging builds the zap loggers used by the CLI and the pipeline.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and encoding. Zero values give info-level JSON on
// stderr.
type Config struct {
	Level       string   // debug, info, warn, error
	Encoding    string   // json or console
	Development bool     // colored levels, stack traces on warn
	OutputPaths []string // defaults to stderr
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	enc := strings.ToLower(cfg.Encoding)
	switch enc {
	case "":
		enc = "json"
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid log encoding %q (want json or console)", cfg.Encoding)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Development && enc == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	out := cfg.OutputPaths
	if len(out) == 0 {
		out = []string{"stderr"}
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      cfg.Development,
		Encoding:         enc,
		EncoderConfig:    encoderConfig,
		OutputPaths:      out,
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }
