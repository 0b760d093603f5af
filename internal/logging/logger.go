package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jasperwreed/campus-market/internal/config"
)

// New builds a production zap logger from cfg. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(levelOrDefault(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = !verbose

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	return zc.Build()
}

// NewFileOnly logs to cfg.File when set and discards output otherwise.
// The TUI uses it so log lines never land on the alternate screen.
func NewFileOnly(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	return New(cfg, verbose)
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
