package dialog

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nutricoach"
)

// InstrumentedOrchestrator is an instrumented version of the Orchestrator with
// comprehensive observability metrics.
type InstrumentedOrchestrator struct {
	inner  *Orchestrator
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumentedOrchestrator initializes a new instrumented orchestrator.
func NewInstrumentedOrchestrator(inner *Orchestrator, tracer trace.Tracer, meter metric.Meter) *InstrumentedOrchestrator {
	return &InstrumentedOrchestrator{
		inner:  inner,
		tracer: tracer,
		meter:  meter,
	}
}

// HandleEvent processes one incoming event with full instrumentation.
func (o *InstrumentedOrchestrator) HandleEvent(ctx context.Context, event nutricoach.Event) []nutricoach.Message {
	ctx, span := o.tracer.Start(ctx, "InstrumentedOrchestrator.HandleEvent")
	defer span.End()

	eventsCounter, _ := o.meter.Int64Counter("dialog_events_total",
		metric.WithDescription("Total number of dialog events handled"))
	outgoingCounter, _ := o.meter.Int64Counter("dialog_messages_out_total",
		metric.WithDescription("Total number of outgoing messages produced"))
	activeSessionsGauge, _ := o.meter.Int64Gauge("dialog_active_sessions",
		metric.WithDescription("Number of dialog sessions currently in progress"))
	handleDurationHist, _ := o.meter.Float64Histogram("dialog_handle_duration_seconds",
		metric.WithDescription("Duration of event handling in seconds"))

	eventsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_kind", string(event.Kind)),
	))

	span.AddEvent("Handling dialog event", trace.WithAttributes(
		attribute.String("event_kind", string(event.Kind)),
		attribute.Int("input_length", len(event.Text)),
	))

	start := time.Now()
	msgs := o.inner.HandleEvent(ctx, event)
	duration := time.Since(start)

	handleDurationHist.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("event_kind", string(event.Kind)),
	))
	outgoingCounter.Add(ctx, int64(len(msgs)))
	activeSessionsGauge.Record(ctx, int64(o.inner.ActiveSessions()))

	span.AddEvent("Dialog event handled", trace.WithAttributes(
		attribute.Int("outgoing_messages", len(msgs)),
		attribute.Float64("handle_duration_seconds", duration.Seconds()),
	))

	slog.Info("ORCHESTRATOR: Event handled",
		"kind", event.Kind,
		"outgoing", len(msgs),
		"duration_ms", duration.Milliseconds(),
	)

	return msgs
}

// EvictStale destroys idle sessions, recording how many were evicted.
func (o *InstrumentedOrchestrator) EvictStale(maxIdle time.Duration) int {
	ctx := context.Background()

	evictedCounter, _ := o.meter.Int64Counter("dialog_sessions_evicted_total",
		metric.WithDescription("Total number of stale dialog sessions evicted"))

	evicted := o.inner.EvictStale(maxIdle)
	if evicted > 0 {
		evictedCounter.Add(ctx, int64(evicted))
	}
	return evicted
}
