package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zap logger plus the log file it writes to, if any.
type Logger struct {
	*zap.Logger
	file io.Closer
}

// Close flushes buffered records and releases the log file.
func (l *Logger) Close() error {
	l.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// NewFile logs JSON records to path, rotated by size.
func NewFile(path, level string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), parseLevel(level))
	return &Logger{Logger: zap.New(core), file: w}, nil
}

// NewConsole logs JSON records to stderr.
func NewConsole(level string) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(os.Stderr), parseLevel(level))
	return zap.New(core)
}

// ForServer logs to path when set, stderr otherwise.
func ForServer(path, level string) (*Logger, error) {
	if path == "" {
		return &Logger{Logger: NewConsole(level)}, nil
	}
	return NewFile(path, level)
}

// ForTerminal never writes to the terminal: the TUI owns it.
func ForTerminal(path, level string) (*Logger, error) {
	if path == "" {
		return &Logger{Logger: zap.NewNop()}, nil
	}
	return NewFile(path, level)
}
