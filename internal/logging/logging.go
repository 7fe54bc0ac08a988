// Package logging provides structured logging for bucketfm using uber/zap.
//
// Two output formats are supported:
//   - json: machine-parseable output for production deployments
//   - text: colored console output for local development
//
// Loggers are injected into each engine rather than accessed globally, so
// tests can substitute zap.NewNop().
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines logger configuration. It mirrors the "logging" section of
// the main configuration file.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`

	// Format selects the output encoding: "json" or "text".
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output is "stdout", "stderr" or a file path.
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// New builds a *zap.Logger from the configuration.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoding := "json"
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Format == "text" {
		encoding = "console"
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// NewDefault returns an info-level text logger, falling back to a no-op
// logger if construction fails.
func NewDefault() *zap.Logger {
	logger, err := New(Config{Level: "info", Format: "text", Output: "stdout"})
	if err != nil {
		return zap.NewNop()
	}

	return logger
}
