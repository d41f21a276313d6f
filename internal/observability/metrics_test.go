package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"efrenamer/internal/naming"
	"efrenamer/internal/renamer"
)

func TestRenameMetrics_WriteText(t *testing.T) {
	mp, err := InitMeterProvider(Config{ServiceName: "efrenamer-test", Environment: "test"})
	require.NoError(t, err)
	defer mp.Shutdown(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	metrics, err := NewRenameMetrics(mp.Meter(MeterName))
	require.NoError(t, err)

	metrics.ObserveResolution(naming.KindClass, false)
	metrics.ObserveResolution(naming.KindClass, true)
	metrics.ObserveResolution(naming.KindMember, false)
	metrics.ObserveElement(renamer.SectionEntitySet, true)
	metrics.ObserveElement(renamer.SectionEntitySet, false)
	metrics.RecordRun(context.Background(), 250*time.Millisecond, nil)
	metrics.RecordRun(context.Background(), time.Second, errors.New("boom"))

	var buf bytes.Buffer
	require.NoError(t, mp.WriteText(&buf))
	text := buf.String()

	assert.Contains(t, text, "efrenamer_names_resolved")
	assert.Contains(t, text, "efrenamer_names_cache_hits")
	assert.Contains(t, text, "efrenamer_elements_renamed")
	assert.Contains(t, text, "efrenamer_elements_skipped")
	assert.Contains(t, text, "efrenamer_run_duration")
	assert.Contains(t, text, `kind="class"`)
	assert.Contains(t, text, `section="entity_set"`)
	assert.Contains(t, text, `outcome="failure"`)
}

func TestRenameMetrics_NoopMeter(t *testing.T) {
	metrics, err := NewRenameMetrics(noop.NewMeterProvider().Meter(MeterName))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		metrics.ObserveResolution(naming.KindMember, true)
		metrics.ObserveElement(renamer.SectionDiagramShape, false)
		metrics.RecordRun(context.Background(), time.Millisecond, nil)
	})
}
