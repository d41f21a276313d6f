// Package runapp owns the lifecycle of one rename run: observability setup,
// rule loading, the document walk, and persisting the model and its diagram.
package runapp

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"efrenamer/internal/config"
	"efrenamer/internal/logging"
	"efrenamer/internal/modelfile"
	"efrenamer/internal/observability"
)

// App owns runtime resources for a rename run.
type App struct {
	cfg    *config.Config
	logger *logging.Logger
	store  *modelfile.Store
	now    func() time.Time

	loggerProvider *observability.LoggerProvider
	meterProvider  *observability.MeterProvider
	tracerProvider *observability.TracerProvider

	metrics *observability.RenameMetrics
	tracer  trace.Tracer

	cleanup cleanupStack

	stateMu     sync.Mutex
	initialized bool

	shutdownOnce sync.Once
}

// Option customizes an App.
type Option func(*App)

// WithFs runs against fs instead of the operating system filesystem.
func WithFs(fs afero.Fs) Option {
	return func(a *App) {
		a.store = modelfile.New(fs)
	}
}

// WithClock overrides the clock used for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  modelfile.New(nil),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AttachLoggerProvider registers an optional logger provider for shutdown cleanup.
func (a *App) AttachLoggerProvider(provider *observability.LoggerProvider) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.loggerProvider = provider
}
