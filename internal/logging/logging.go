// Package logging builds Lectern's zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log destination, level and encoding.
type Config struct {
	FilePath string // empty logs to stderr
	Level    string // debug, info, warn or error
	Env      string // development (console) or production (JSON)
}

// New returns a logger for cfg and a cleanup func that flushes and closes the
// log file. The TUI owns the terminal, so interactive runs should always set
// FilePath.
func New(cfg Config) (*zap.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	out, closeOut, err := openSink(cfg.FilePath)
	if err != nil {
		return nil, nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "development":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoder(func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
		})
		encoderConfig.TimeKey = "ts"
		encoderConfig.MessageKey = "msg"
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(level))
	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	).Named("lectern")

	cleanup := func() {
		_ = logger.Sync()
		closeOut()
	}
	return logger, cleanup, nil
}

// ParseLevel maps a config level name onto a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel, nil
	case "", "info":
		return zap.InfoLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown logging level %q", level)
	}
}

func openSink(path string) (zapcore.WriteSyncer, func(), error) {
	if strings.TrimSpace(path) == "" {
		return zapcore.Lock(os.Stderr), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fd, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.Lock(fd), func() { _ = fd.Close() }, nil
}
