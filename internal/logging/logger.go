// Package logging provides the leveled, printf-style logger used across the
// pipeline. Console output goes through a tint slog handler; the optional
// --log file receives plain slog text records.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lmittmann/tint"

	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/term"
)

// LevelSuccess sits between INFO and WARN so it is never filtered out when
// INFO is enabled.
const LevelSuccess = slog.LevelInfo + 2

// Logger provides leveled, optionally colored logging with an optional file sink.
type Logger struct {
	mu      sync.Mutex
	console *slog.Logger
	file    *os.File
	sink    *slog.Logger
}

// NewLogger configures terminal colors from cfg and optionally opens
// cfg.LogFile for appending. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *config.Config, out io.Writer) (*Logger, error) {
	color := term.Configure(cfg.ColorMode)

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	l := &Logger{
		console: slog.New(tint.NewHandler(out, &tint.Options{
			Level:       level,
			TimeFormat:  "15:04:05",
			NoColor:     !color,
			ReplaceAttr: renameSuccess,
		})),
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		l.sink = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: renameSuccess,
		}))
	}
	return l, nil
}

// renameSuccess prints LevelSuccess as "OK" instead of "INFO+2".
func renameSuccess(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelSuccess {
		return slog.String(slog.LevelKey, "OK")
	}
	return a
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.sink = nil
		return err
	}
	return nil
}

func (l *Logger) log(level slog.Level, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	ctx := context.Background()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console.Enabled(ctx, level) {
		l.console.LogAttrs(ctx, level, msg)
	}
	if l.sink != nil && l.sink.Enabled(ctx, level) {
		r := slog.NewRecord(time.Now(), level, msg, 0)
		_ = l.sink.Handler().Handle(ctx, r)
	}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) { l.log(slog.LevelInfo, format, args) }

// Success logs a completed step.
func (l *Logger) Success(format string, args ...any) { l.log(LevelSuccess, format, args) }

// Warn logs a soft failure the pipeline continues past.
func (l *Logger) Warn(format string, args ...any) { l.log(slog.LevelWarn, format, args) }

// Error logs a fatal condition.
func (l *Logger) Error(format string, args ...any) { l.log(slog.LevelError, format, args) }

// Debug logs only when --verbose is set.
func (l *Logger) Debug(format string, args ...any) { l.log(slog.LevelDebug, format, args) }
