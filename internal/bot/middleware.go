package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
)

// HandlerFunc is one link of the handler chain. The last link calls
// Handler.Handle; middlewares wrap it and call next.
type HandlerFunc func(ctx context.Context, h Handler, t *Turn, next HandlerFunc) error

// Chain composes middlewares around the handler's Handle method, outermost first.
func Chain(mws ...HandlerFunc) HandlerFunc {
	final := func(ctx context.Context, h Handler, t *Turn, _ HandlerFunc) error {
		return h.Handle(ctx, t)
	}
	chain := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], chain
		chain = func(ctx context.Context, h Handler, t *Turn, _ HandlerFunc) error {
			return mw(ctx, h, t, next)
		}
	}
	return chain
}

// LoggingMiddleware logs handler execution with timing and result info.
func LoggingMiddleware(log *logger.Logger) HandlerFunc {
	return func(ctx context.Context, h Handler, t *Turn, next HandlerFunc) error {
		start := time.Now()
		from := t.State()

		log.WithField("module", h.Name()).
			WithField("state", from).
			WithField("input_kind", t.Input.Kind).
			DebugContext(ctx, "Handler started")

		err := next(ctx, h, t, nil)

		entry := log.WithField("module", h.Name()).
			WithField("from", from).
			WithField("to", t.State()).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("msg_count", len(t.Messages()))
		if err != nil {
			entry.WithError(err).WarnContext(ctx, "Handler failed")
		} else {
			entry.DebugContext(ctx, "Handler completed")
		}
		return err
	}
}

// MetricsMiddleware records handler execution metrics.
func MetricsMiddleware(m *metrics.Metrics) HandlerFunc {
	return func(ctx context.Context, h Handler, t *Turn, next HandlerFunc) error {
		start := time.Now()

		err := next(ctx, h, t, nil)

		status := "success"
		if err != nil {
			status = "error"
		}
		m.RecordHandler(h.Name(), status, time.Since(start).Seconds())
		return err
	}
}

// RecoveryMiddleware turns a handler panic into an error so the processor
// answers with the generic error and keeps the stored record.
func RecoveryMiddleware(log *logger.Logger) HandlerFunc {
	return func(ctx context.Context, h Handler, t *Turn, next HandlerFunc) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("module", h.Name()).
					WithField("panic", r).
					WithField("stack", string(debug.Stack())).
					ErrorContext(ctx, "Handler panicked")
				err = fmt.Errorf("handler %s panicked: %v", h.Name(), r)
			}
		}()

		return next(ctx, h, t, nil)
	}
}
