package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// counterTotal sums every data point of the named Int64 sum.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestNew_Disabled(t *testing.T) {
	inst, err := New(Config{})
	require.NoError(t, err)
	defer func() { _ = inst.Shutdown(context.Background()) }()

	assert.False(t, inst.Enabled())
	require.NotNil(t, inst.Metrics())

	// Recording against no-op providers should not panic.
	ctx := context.Background()
	inst.Metrics().RecordHTTPRequest(ctx, http.MethodPost, http.StatusOK, time.Millisecond)
	inst.Metrics().RecordAuthDecision(ctx, "BASIC_OK", true)
	inst.Metrics().RecordChallenge(ctx)
	inst.Metrics().RecordEvent(ctx, "meeting.started")
	inst.Metrics().RecordSignatureFailure(ctx, "missing")
}

func TestNoop(t *testing.T) {
	inst := Noop()
	require.NotNil(t, inst.Metrics())
	assert.False(t, inst.Enabled())
	assert.NoError(t, inst.Shutdown(context.Background()))

	_, span := inst.Tracer("dispatch").Start(context.Background(), "noop")
	SetSpanSuccess(span)
	span.End()
}

func TestMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	inst, err := New(Config{Enabled: true, Reader: reader, ServiceVersion: "test", Writer: io.Discard})
	require.NoError(t, err)
	defer func() { _ = inst.Shutdown(context.Background()) }()

	ctx := context.Background()
	m := inst.Metrics()
	m.RecordHTTPRequest(ctx, http.MethodGet, http.StatusOK, 2*time.Millisecond)
	m.RecordHTTPRequest(ctx, http.MethodPost, http.StatusUnauthorized, time.Millisecond)
	m.RecordAuthDecision(ctx, "HEADER_FAIL", false)
	m.RecordChallenge(ctx)
	m.RecordChallenge(ctx)
	m.RecordEvent(ctx, "recording.completed")
	m.RecordSignatureFailure(ctx, "stale")

	assert.Equal(t, int64(2), counterTotal(t, reader, MetricHTTPRequests))
	assert.Equal(t, int64(1), counterTotal(t, reader, MetricAuthDecisions))
	assert.Equal(t, int64(2), counterTotal(t, reader, MetricChallenges))
	assert.Equal(t, int64(1), counterTotal(t, reader, MetricEvents))
	assert.Equal(t, int64(1), counterTotal(t, reader, MetricSignatureFailures))
}

func TestTracing_SpansExported(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(Config{Enabled: true, SpanProcessor: recorder, Writer: io.Discard})
	require.NoError(t, err)
	defer func() { _ = inst.Shutdown(context.Background()) }()

	_, ok := inst.Tracer("dispatch").Start(context.Background(), "ok-span")
	SetSpanAttributes(ok, attribute.String(AttrEventName, "meeting.started"))
	SetSpanSuccess(ok)
	ok.End()

	_, failed := inst.Tracer("dispatch").Start(context.Background(), "failed-span")
	RecordError(failed, errors.New("boom"))
	failed.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "ok-span", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(AttrEventName, "meeting.started"))

	assert.Equal(t, "failed-span", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestSpanHelpers_NilSafe(t *testing.T) {
	RecordError(nil, errors.New("ignored"))
	SetSpanSuccess(nil)
	SetSpanAttributes(nil, attribute.String("k", "v"))
}

func TestNew_EnabledWritesToWriter(t *testing.T) {
	var out bytes.Buffer
	inst, err := New(Config{Enabled: true, Writer: &out, ExportInterval: time.Hour})
	require.NoError(t, err)

	ctx := context.Background()
	inst.Metrics().RecordHTTPRequest(ctx, http.MethodPost, http.StatusOK, time.Millisecond)
	inst.Metrics().RecordEvent(ctx, "meeting.started")

	_, span := inst.Tracer("dispatch").Start(ctx, "dispatch")
	SetSpanSuccess(span)
	span.End()

	// Shutdown runs the final export for both providers.
	require.NoError(t, inst.Shutdown(ctx))

	assert.Contains(t, out.String(), MetricHTTPRequests)
	assert.Contains(t, out.String(), MetricEvents)
	assert.Contains(t, out.String(), `"Name":"dispatch"`)
}

func TestShutdown_Idempotent(t *testing.T) {
	inst, err := New(Config{Enabled: true, Writer: io.Discard})
	require.NoError(t, err)

	assert.NoError(t, inst.Shutdown(context.Background()))
	assert.NoError(t, inst.Shutdown(context.Background()))
}
