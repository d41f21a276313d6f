package runapp

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"efrenamer/internal/observability"
)

const instrumentationName = "efrenamer"

// Init sets up metrics and tracing. It is idempotent. On failure, whatever
// was already set up is released again.
func (a *App) Init(ctx context.Context) error {
	a.stateMu.Lock()
	if a.initialized {
		a.stateMu.Unlock()
		return nil
	}
	loggerProvider := a.loggerProvider
	a.stateMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	cleanup := cleanupStack{}
	success := false
	defer func() {
		if !success {
			_ = cleanup.run(ctx, a.logger)
		}
	}()

	if loggerProvider != nil {
		cleanup.push("logger provider", func(shutdownCtx context.Context) error {
			return loggerProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	meterProvider, err := initMetrics(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry metrics: %w", err)
	}
	var meter metric.Meter = noop.NewMeterProvider().Meter(observability.MeterName)
	if meterProvider != nil {
		cleanup.push("meter provider", func(shutdownCtx context.Context) error {
			return meterProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
		meter = meterProvider.Meter(observability.MeterName)
	}
	metrics, err := observability.NewRenameMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to initialize rename metrics: %w", err)
	}

	tracerProvider, err := initTracing(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry tracing: %w", err)
	}
	var tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	if tracerProvider != nil {
		cleanup.push("tracer provider", func(shutdownCtx context.Context) error {
			return tracerProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
		tracer = tracerProvider.Tracer(instrumentationName)
	}

	a.stateMu.Lock()
	a.meterProvider = meterProvider
	a.tracerProvider = tracerProvider
	a.metrics = metrics
	a.tracer = tracer
	a.cleanup = cleanup
	a.initialized = true
	a.stateMu.Unlock()

	success = true
	return nil
}
