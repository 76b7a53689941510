// Package logging provides the structured logger used throughout this
// module: a thin wrapper around log/slog that can optionally mirror
// warnings and errors to Sentry, rate-limited so that a hot loop hammering
// the same failure (a CRC mismatch on every record of a corrupt file,
// say) doesn't flood an error-tracking project.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tags are key-value pairs attached to captured Sentry events.
type Tags map[string]string

// Logger wraps *slog.Logger, adding optional Sentry capture for
// operator-facing failures: a corrupt file, a mode B file that had to be
// dropped, an indexer run that failed partway through.
type Logger struct {
	mu sync.Mutex

	*slog.Logger
	sentryHub *sentry.Hub // nil if Sentry capture is disabled

	baseTags Tags
	limiter  *RateLimiter
}

// New returns a Logger writing through base and, if hub is non-nil,
// mirroring captured errors and warnings to Sentry.
func New(base *slog.Logger, hub *sentry.Hub) *Logger {
	const cacheSize = 100
	const minInterval = 5 * time.Minute

	limiter, err := NewRateLimiter(cacheSize, minInterval)
	if err != nil {
		base.Error(fmt.Sprintf("logging: could not build rate limiter: %v", err))
	}

	if hub != nil {
		hub = hub.Clone()
	}

	return &Logger{
		Logger:   base,
		sentryHub: hub,
		baseTags: make(Tags),
		limiter:  limiter,
	}
}

// NewNoOp returns a Logger that discards everything, for callers that
// want no logging backend.
func NewNoOp() *Logger {
	return New(slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)
}

// With returns a derived logger carrying the given slog args on every
// subsequent message.
func (l *Logger) With(args ...any) *Logger {
	var hub *sentry.Hub
	if l.sentryHub != nil {
		hub = l.sentryHub.Clone()
	}
	return &Logger{
		Logger:    l.Logger.With(args...),
		sentryHub: hub,
		baseTags:  l.baseTags,
		limiter:   l.limiter,
	}
}

// SetGlobalTags merges tags into every Sentry capture this logger (and
// its descendants via With) performs from now on.
func (l *Logger) SetGlobalTags(tags Tags) {
	l.mu.Lock()
	defer l.mu.Unlock()
	maps.Copy(l.baseTags, tags)
}

// CaptureError logs err at error level and, if allowed by the rate
// limiter, uploads it to Sentry.
func (l *Logger) CaptureError(err error, args ...any) {
	l.Error(err.Error(), args...)
	l.captureException(err)
}

// CaptureWarn logs msg at warn level and, if allowed, uploads it to
// Sentry as a message event.
func (l *Logger) CaptureWarn(msg string, args ...any) {
	l.Warn(msg, args...)
	l.captureMessage(msg)
}

func (l *Logger) captureException(err error) {
	if l.sentryHub == nil || !l.limiter.Allow(err.Error()) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sentryHub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(l.baseTags)
		l.sentryHub.CaptureException(err)
	})
}

func (l *Logger) captureMessage(msg string) {
	if l.sentryHub == nil || !l.limiter.Allow(msg) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sentryHub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(l.baseTags)
		l.sentryHub.CaptureMessage(msg)
	})
}
