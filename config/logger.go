package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a debug logger writing JSON lines to <dataDir>/debug.log.
// The TUI owns the terminal, so nothing is written to stdout or stderr. When
// debug is off a no-op logger is returned. The returned func flushes the logger
// and closes the log file.
func NewLogger(dataDir string, debug bool) (*zap.Logger, func() error, error) {
	if !debug {
		return zap.NewNop(), func() error { return nil }, nil
	}

	if err := EnsureDir(dataDir); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logPath := filepath.Join(dataDir, "debug.log")
	// 0600 - may contain chat content
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log at %s: %w", logPath, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	logger := zap.New(core, zap.AddCaller())
	logger.Debug("debug logging started", zap.String("path", logPath))

	closeLog := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeLog, nil
}
