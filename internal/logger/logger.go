package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a no-op until Init is called, so packages can log unconditionally
var Logger = zap.NewNop()

// Init builds the package logger. The TUI owns the terminal, so output goes
// to path; an empty path keeps logging disabled.
func Init(level string, path string, development bool) error {
	if path == "" {
		Logger = zap.NewNop()
		return nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
		config.Sampling = nil
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Logger = built
	return nil
}

// Sync flushes buffered log entries
func Sync() {
	_ = Logger.Sync()
}

// Debug logs at debug level
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Info logs at info level
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

// Warn logs at warn level
func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

// Error logs at error level, attaching err when it is not nil
func Error(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Logger.Error(msg, fields...)
}
