package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricHTTPRequests        = "zoomhook.http.requests"
	MetricHTTPRequestDuration = "zoomhook.http.request.duration"
	MetricAuthDecisions       = "zoomhook.auth.decisions"
	MetricChallenges          = "zoomhook.challenges"
	MetricEvents              = "zoomhook.events"
	MetricSignatureFailures   = "zoomhook.signature.failures"
)

// Metrics holds all metric instruments.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	AuthDecisions     metric.Int64Counter
	Challenges        metric.Int64Counter
	Events            metric.Int64Counter
	SignatureFailures metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		MetricHTTPRequests,
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricHTTPRequests, err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		MetricHTTPRequestDuration,
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s histogram: %w", MetricHTTPRequestDuration, err)
	}

	m.AuthDecisions, err = meter.Int64Counter(
		MetricAuthDecisions,
		metric.WithDescription("Authorization decisions by reason"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricAuthDecisions, err)
	}

	m.Challenges, err = meter.Int64Counter(
		MetricChallenges,
		metric.WithDescription("url_validation challenges answered"),
		metric.WithUnit("{challenge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricChallenges, err)
	}

	m.Events, err = meter.Int64Counter(
		MetricEvents,
		metric.WithDescription("Webhook events acknowledged"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricEvents, err)
	}

	m.SignatureFailures, err = meter.Int64Counter(
		MetricSignatureFailures,
		metric.WithDescription("Requests rejected by x-zm-signature verification"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricSignatureFailures, err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", statusCode),
	))
	m.HTTPRequestDuration.Record(ctx, float64(duration.Microseconds())/1000,
		metric.WithAttributes(attribute.String("method", method)))
}

// RecordAuthDecision records an authorization outcome.
func (m *Metrics) RecordAuthDecision(ctx context.Context, reason string, allowed bool) {
	m.AuthDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.Bool("allowed", allowed),
	))
}

// RecordChallenge records an answered url_validation challenge.
func (m *Metrics) RecordChallenge(ctx context.Context) {
	m.Challenges.Add(ctx, 1)
}

// RecordEvent records an acknowledged webhook event.
func (m *Metrics) RecordEvent(ctx context.Context, event string) {
	m.Events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordSignatureFailure records a rejected request signature.
func (m *Metrics) RecordSignatureFailure(ctx context.Context, reason string) {
	m.SignatureFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
