// Package env holds the process environment conventions shared by the commands
package env

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// Prefix is the environment variable prefix of every flag
	Prefix = "MNRATES"

	// DBURLSuffix is the suffix of the database URL variable
	DBURLSuffix = "_DB_URL"
)

var (
	errInvalidLogLevel  = errors.New("invalid log level")
	errInvalidLogFormat = errors.New("invalid log format")
)

// LogConfig is the process logger configuration
type LogConfig struct {
	// Output is the console log destination, stdout if unset
	Output io.Writer

	Level  string
	Format string
	File   string
}

// RegisterFlags registers the logger flags
func (c *LogConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.Level,
		"log-level",
		"info",
		"the log level (debug, info, warn, error)",
	)

	fs.StringVar(
		&c.Format,
		"log-format",
		"text",
		"the log format (text, json)",
	)

	fs.StringVar(
		&c.File,
		"log-file",
		"",
		"the rotated log file, if any. Logs are always written to the console",
	)
}

// NewLogger builds the process logger
func NewLogger(cfg LogConfig) (*slog.Logger, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Level)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}

		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(cfg.Format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Format)
	}
}
