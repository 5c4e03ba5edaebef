// Package logging is the diagnostic sink: slog records written to a
// size-rotated file under the config directory.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"chatbridge/pkg/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace sits below debug and is used for full request/response bodies.
const LevelTrace = slog.LevelDebug - 4

var levels = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Rotation limits: sizes in megabytes, age in days.
const (
	rotateSizeMB  = 5
	rotateBackups = 5
	rotateAgeDays = 14
)

// Init installs a logger built from cfg as the slog default and returns
// it. When the log directory cannot be created the returned logger
// discards everything and the error is reported.
func Init(cfg config.Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level:       parseLogLevel(cfg.LogLevel),
		ReplaceAttr: replaceLevelName,
	}

	sink, err := openSink(cfg.LogFile)
	if err != nil {
		sink = io.Discard
	}

	logger := slog.New(newHandler(cfg.LogFormat, sink, opts)).With("app", "chatbridge")
	slog.SetDefault(logger)
	return logger, err
}

// openSink returns a rotating writer for path, or for the default log file
// in the config directory when path is blank.
func openSink(path string) (io.Writer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join(config.GetConfigDir(), "logs", "chatbridge.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotateSizeMB,
		MaxBackups: rotateBackups,
		MaxAge:     rotateAgeDays,
		Compress:   true,
	}, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TraceEnabled reports whether logger records trace-level events.
func TraceEnabled(ctx context.Context, logger *slog.Logger) bool {
	return logger != nil && logger.Enabled(ctx, LevelTrace)
}

// parseLogLevel maps a config level name to a slog level. Unknown names
// mean info.
func parseLogLevel(name string) slog.Level {
	if level, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return level
	}
	return slog.LevelInfo
}

// replaceLevelName prints LevelTrace as "TRACE" instead of "DEBUG-4".
func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
