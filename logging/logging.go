// Package logging provides the structured slog logger shared by every
// component, writing text to the console and JSON to a log file when a log
// directory is configured.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance. An empty logDir logs
// to the console only.
func InitLogger(logDir string) {
	InitLoggerWithLevel(logDir, "info")
}

// InitLoggerWithLevel initializes the global logger with an explicit level.
func InitLoggerWithLevel(logDir, level string) {
	DefaultLoggingService = &LoggingService{
		Logger: setupLogger(logDir, parseLevel(level)),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogger(logDir string, level slog.Level) *slog.Logger {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if logDir == "" {
		return slog.New(console)
	}

	file, err := openLogFile(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file, console only: %v\n", err)
		return slog.New(console)
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(&teeHandler{handlers: []slog.Handler{console, fileHandler}})
}

// openLogFile opens (or creates) one log file per ISO week.
func openLogFile(logDir string) (io.Writer, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	year, week := time.Now().ISOWeek()
	name := fmt.Sprintf("app-%d-W%02d.log", year, week)
	file, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// teeHandler fans every record out to all wrapped handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: handlers}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: handlers}
}

// Package-level functions for direct access. They fall back to a console
// logger when InitLogger has not run, so early startup paths never panic.

func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}
