package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error, off
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// DefaultConfig logs to stderr so diagnostics never mix with command output
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05.000",
	}
}

// New builds a zap logger from cfg. Level "off" returns a no-op logger.
func New(cfg *Config) (*zap.Logger, error) {
	if strings.EqualFold(cfg.Level, "off") {
		return zap.NewNop(), nil
	}
	sink, toFile, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.TimeFormat != "" {
		enc.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	}

	var encoder zapcore.Encoder
	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if strings.EqualFold(cfg.Format, "json") {
		encoder = zapcore.NewJSONEncoder(enc)
		opts = append(opts, zap.AddCaller())
	} else {
		// Colors only make sense on a terminal stream
		if !toFile {
			enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			enc.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	return zap.New(zapcore.NewCore(encoder, sink, ParseLevel(cfg.Level)), opts...), nil
}

// ParseLevel maps a level name to zapcore, defaulting to info
func ParseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func openSink(output string) (zapcore.WriteSyncer, bool, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), false, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), false, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, false, fmt.Errorf("opening log file: %w", err)
	}
	return zapcore.AddSync(f), true, nil
}
