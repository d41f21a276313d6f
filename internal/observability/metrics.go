package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"efrenamer/internal/naming"
	"efrenamer/internal/renamer"
)

// MeterName is the instrumentation scope of the run metrics.
const MeterName = "efrenamer"

// RenameMetrics records name resolutions and element visits of a run. It
// satisfies both naming.Observer and renamer.Observer.
type RenameMetrics struct {
	namesResolved   metric.Int64Counter
	cacheHits       metric.Int64Counter
	elementsRenamed metric.Int64Counter
	elementsSkipped metric.Int64Counter
	runDuration     metric.Float64Histogram
}

var (
	_ naming.Observer  = (*RenameMetrics)(nil)
	_ renamer.Observer = (*RenameMetrics)(nil)
)

// NewRenameMetrics creates the run instruments on meter.
func NewRenameMetrics(meter metric.Meter) (*RenameMetrics, error) {
	namesResolved, err := meter.Int64Counter(
		"efrenamer.names.resolved",
		metric.WithDescription("Names resolved for the first time in a run"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create names resolved counter: %w", err)
	}

	cacheHits, err := meter.Int64Counter(
		"efrenamer.names.cache_hits",
		metric.WithDescription("Name lookups answered by the resolution cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	elementsRenamed, err := meter.Int64Counter(
		"efrenamer.elements.renamed",
		metric.WithDescription("Document elements rewritten"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create elements renamed counter: %w", err)
	}

	elementsSkipped, err := meter.Int64Counter(
		"efrenamer.elements.skipped",
		metric.WithDescription("Document elements left unchanged because they were not selected"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create elements skipped counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram(
		"efrenamer.run.duration",
		metric.WithDescription("Duration of a rename run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	return &RenameMetrics{
		namesResolved:   namesResolved,
		cacheHits:       cacheHits,
		elementsRenamed: elementsRenamed,
		elementsSkipped: elementsSkipped,
		runDuration:     runDuration,
	}, nil
}

// ObserveResolution implements naming.Observer.
func (m *RenameMetrics) ObserveResolution(kind naming.Kind, cached bool) {
	attrs := metric.WithAttributes(attribute.String("kind", kind.String()))
	if cached {
		m.cacheHits.Add(context.Background(), 1, attrs)
		return
	}
	m.namesResolved.Add(context.Background(), 1, attrs)
}

// ObserveElement implements renamer.Observer.
func (m *RenameMetrics) ObserveElement(section renamer.Section, renamed bool) {
	attrs := metric.WithAttributes(attribute.String("section", string(section)))
	if renamed {
		m.elementsRenamed.Add(context.Background(), 1, attrs)
		return
	}
	m.elementsSkipped.Add(context.Background(), 1, attrs)
}

// RecordRun records the duration and outcome of a run.
func (m *RenameMetrics) RecordRun(ctx context.Context, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}
