package runapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"efrenamer/internal/logging"
)

// cleanupStack holds the telemetry providers a run has started. The process
// exits right after a run, so each entry must flush what it buffered (spans,
// log records, metric readers) before returning. Entries run last-in
// first-out so the logger provider, pushed first, still ships the log lines
// of the later shutdowns.
type cleanupStack struct {
	items []cleanupItem
}

type cleanupItem struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.items = append(s.items, cleanupItem{name: name, fn: fn})
}

// run calls every entry even when an earlier one fails and returns the
// joined failures.
func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) error {
	var errs []error
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		if logger != nil {
			logger.Debug("flushing " + item.name)
		}
		if err := item.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.name, err))
			if logger != nil {
				logger.Warn("cleanup error",
					slog.String("component", item.name),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops the telemetry providers started by Init. Only
// the first call does any work; later calls return nil.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	a.shutdownOnce.Do(func() {
		a.stateMu.Lock()
		cleanup := a.cleanup
		a.initialized = false
		a.stateMu.Unlock()

		err = cleanup.run(ctx, a.logger)
	})
	return err
}
