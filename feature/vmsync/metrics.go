package vmsync

import (
	"context"
	"sync/atomic"

	"infra-inventory/feature/vmsync/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "infra-inventory.vmsync"

// Metrics records sync run measurements.
type Metrics interface {
	RunStarted()
	RunFinished(ctx context.Context, report *models.RunReport)
}

type otelMetrics struct {
	runs     metric.Int64Counter
	records  metric.Int64Counter
	duration metric.Float64Histogram

	running        atomic.Int64
	lastDurationMs atomic.Int64
	lastFinishedMs atomic.Int64

	registration metric.Registration
}

// NewMetrics registers the sync instruments on meter. A nil meter uses the
// global provider.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	m := &otelMetrics{}
	var err error

	if m.runs, err = meter.Int64Counter("vmsync_runs_total",
		metric.WithDescription("Executed VM sync runs by trigger and status")); err != nil {
		return nil, err
	}
	if m.records, err = meter.Int64Counter("vmsync_records_total",
		metric.WithDescription("Reconciled VM records by outcome")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("vmsync_run_duration_seconds",
		metric.WithDescription("Duration of VM sync runs"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	running, err := meter.Int64ObservableGauge("vmsync_running",
		metric.WithDescription("1 while a VM sync run is in flight"))
	if err != nil {
		return nil, err
	}
	lastDuration, err := meter.Int64ObservableGauge("vmsync_last_duration_ms",
		metric.WithDescription("Duration of the last VM sync run in milliseconds"))
	if err != nil {
		return nil, err
	}
	lastFinished, err := meter.Int64ObservableGauge("vmsync_last_finished_timestamp_ms",
		metric.WithDescription("Unix epoch milliseconds of the last finished VM sync run"))
	if err != nil {
		return nil, err
	}

	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(running, m.running.Load())
		o.ObserveInt64(lastDuration, m.lastDurationMs.Load())
		o.ObserveInt64(lastFinished, m.lastFinishedMs.Load())
		return nil
	}, running, lastDuration, lastFinished)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *otelMetrics) RunStarted() {
	m.running.Store(1)
}

func (m *otelMetrics) RunFinished(ctx context.Context, report *models.RunReport) {
	m.running.Store(0)
	m.lastDurationMs.Store(report.Duration().Milliseconds())
	m.lastFinishedMs.Store(report.FinishedAt.UnixMilli())

	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("trigger", string(report.Trigger)),
		attribute.String("status", report.Status),
	))
	m.duration.Record(ctx, report.Duration().Seconds(), metric.WithAttributes(
		attribute.String("trigger", string(report.Trigger)),
	))

	if report.Result == nil {
		return
	}
	for outcome, n := range map[string]int{
		"created": report.Result.Created,
		"updated": report.Result.Updated,
		"skipped": report.Result.Skipped,
		"failed":  report.Result.Failed,
	} {
		if n > 0 {
			m.records.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RunStarted()                                    {}
func (NoopMetrics) RunFinished(context.Context, *models.RunReport) {}
