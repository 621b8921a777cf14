package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/levenlabs/go-llog"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = New(os.Stderr)
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

type contextKey struct{}

var loggerKey = contextKey{}

// New returns a JSON logger writing to w that follows the default log level.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     &defaultLogLevel,
	}))
}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}

// LevelFromLLog maps the level lflag configured on llog (--log-level) to
// the matching slog level.
func LevelFromLLog() (slog.Level, error) {
	switch llog.GetLevel() {
	case llog.DebugLevel:
		return slog.LevelDebug, nil
	case llog.InfoLevel:
		return slog.LevelInfo, nil
	case llog.WarnLevel:
		return slog.LevelWarn, nil
	case llog.ErrorLevel:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", llog.GetLevel().String())
	}
}
