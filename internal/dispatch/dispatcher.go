package dispatch

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mattjoyce/zoomhook/internal/challenge"
	"github.com/mattjoyce/zoomhook/internal/config"
	"github.com/mattjoyce/zoomhook/internal/instrumentation"
	"github.com/mattjoyce/zoomhook/internal/log"
)

// Dispatcher routes parsed webhook bodies to the challenge responder or to
// the generic acknowledgement path.
type Dispatcher struct {
	secret    string
	observers []Observer
	inst      *instrumentation.Instrumentation
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObservers registers observers for generic events.
func WithObservers(obs ...Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, obs...)
	}
}

// WithInstrumentation records metrics and spans through inst.
func WithInstrumentation(inst *instrumentation.Instrumentation) Option {
	return func(d *Dispatcher) {
		d.inst = inst
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher that answers challenges with secret.
func New(secret string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		secret: secret,
		inst:   instrumentation.Noop(),
		logger: log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch parses body and builds the response. The only error is
// *ParseError; every parsed body yields a 200 Result.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (Result, error) {
	ctx, span := d.inst.Tracer("dispatch").Start(ctx, "dispatch")
	defer span.End()
	instrumentation.SetSpanAttributes(span, attribute.Int(instrumentation.AttrBodySize, len(body)))

	ev, err := ParseEvent(body)
	if err != nil {
		d.logger.Warn("webhook body rejected", "error", err, "size", len(body))
		instrumentation.RecordError(span, err)
		return Result{}, err
	}

	instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrEventName, ev.Name))

	if req, ok := ev.ChallengeRequest(); ok {
		resp := d.answer(ctx, req)
		instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrEventKind, KindChallenge.String()))
		instrumentation.SetSpanSuccess(span)
		return Result{Kind: KindChallenge, Status: http.StatusOK, Body: resp, Event: ev}, nil
	}

	// Only an empty name falls back; whitespace is echoed as sent.
	name := ev.Name
	if name == "" {
		name = "unknown"
	}

	d.logger.Info("webhook event received", "event", name, "event_ts", ev.Timestamp)
	d.inst.Metrics().RecordEvent(ctx, name)
	d.notify(ctx, ev)

	instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrEventKind, KindEvent.String()))
	instrumentation.SetSpanSuccess(span)
	return Result{
		Kind:   KindEvent,
		Status: http.StatusOK,
		Body:   Acknowledgement{Message: MessageWebhookReceived, Event: name},
		Event:  ev,
	}, nil
}

func (d *Dispatcher) answer(ctx context.Context, req ChallengeRequest) challenge.Response {
	_, span := d.inst.Tracer("dispatch").Start(ctx, "challenge.compute")
	defer span.End()

	if d.secret == "" {
		d.logger.Warn("answering url_validation without a verification token; Zoom will reject the response")
	}
	instrumentation.SetSpanAttributes(span, attribute.Bool(instrumentation.AttrSecretPresent, d.secret != ""))

	resp := challenge.Compute(req.PlainToken, d.secret)
	d.inst.Metrics().RecordChallenge(ctx)
	d.logger.Info("url_validation answered",
		"plain_token", req.PlainToken,
		"secret_fingerprint", config.Fingerprint(d.secret),
	)
	instrumentation.SetSpanSuccess(span)
	return resp
}

// notify hands ev to every observer. Failures are logged only.
func (d *Dispatcher) notify(ctx context.Context, ev Event) {
	for _, obs := range d.observers {
		if err := obs.Observe(ctx, ev); err != nil {
			d.logger.Error("event observer failed", "event", ev.Name, "error", err)
		}
	}
}
