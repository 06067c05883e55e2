package tagstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rbaliyan/tagstore/retry"
)

const instrumentationName = "github.com/rbaliyan/tagstore"

// otelInstrumentation holds OpenTelemetry instrumentation for the store.
type otelInstrumentation struct {
	enabled bool

	opLatency metric.Float64Histogram
	opCount   metric.Int64Counter
	opErrors  metric.Int64Counter
}

// newOtelInstrumentation creates instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{enabled: opts.metricsEnabled}
	if !o.enabled {
		return o, nil
	}

	mp := opts.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	var err error
	o.opLatency, err = meter.Float64Histogram(
		"tagstore.op.duration",
		metric.WithDescription("Duration of tag store operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	o.opCount, err = meter.Int64Counter(
		"tagstore.op.count",
		metric.WithDescription("Number of tag store operations"),
	)
	if err != nil {
		return nil, err
	}

	o.opErrors, err = meter.Int64Counter(
		"tagstore.op.errors",
		metric.WithDescription("Number of failed tag store operations"),
	)
	if err != nil {
		return nil, err
	}

	// Bridge the retry package's process-wide counters.
	retries, err := meter.Int64ObservableCounter(
		"tagstore.retry.retries",
		metric.WithDescription("Retried attempts across the process"),
	)
	if err != nil {
		return nil, err
	}
	successes, err := meter.Int64ObservableCounter(
		"tagstore.retry.successes",
		metric.WithDescription("Operations that eventually succeeded after retry"),
	)
	if err != nil {
		return nil, err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		obs.ObserveInt64(retries, retry.TotalRetries())
		obs.ObserveInt64(successes, retry.TotalSuccesses())
		return nil
	}, retries, successes)
	if err != nil {
		return nil, err
	}

	return o, nil
}

// record reports one operation's outcome. Safe to call when disabled.
func (o *otelInstrumentation) record(ctx context.Context, op string, start time.Time, err error) {
	if o == nil || !o.enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op))
	o.opCount.Add(ctx, 1, attrs)
	o.opLatency.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		o.opErrors.Add(ctx, 1, attrs)
	}
}
