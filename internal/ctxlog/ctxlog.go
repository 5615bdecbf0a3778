// Package ctxlog carries a charmbracelet logger through context.Context.
package ctxlog

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

type ctxKey int

const loggerKey ctxKey = 0

// New creates a logger writing to w at the given level, with
// "HH:MM:SS.ms" timestamps.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or log.Default().
func FromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok && l != nil {
			return l
		}
	}
	return log.Default()
}

// Timer logs msg with the elapsed time when Done is called.
type Timer struct {
	logger *log.Logger
	start  time.Time
}

// Start begins timing an operation.
func Start(l *log.Logger) *Timer {
	return &Timer{logger: l, start: time.Now()}
}

// Done logs msg at info level with the elapsed duration and returns it.
func (t *Timer) Done(msg string, keyvals ...any) time.Duration {
	d := time.Since(t.start)
	t.logger.Info(msg, append(keyvals, "elapsed", d.Round(time.Millisecond))...)
	return d
}
