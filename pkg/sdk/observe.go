package techsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeInvalid   = "invalid"
	outcomeUnhealthy = "unhealthy"
	outcomeError     = "error"
)

// outcome separates caller mistakes from backend failures so dashboards can
// alert on the latter only.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrValidation):
		return outcomeInvalid
	case errors.Is(err, errUnhealthy):
		return outcomeUnhealthy
	default:
		return outcomeError
	}
}

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.HistogramVec
	truncated  prometheus.Counter
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "techsearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by type and outcome (ok, invalid, unhealthy, error).",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "techsearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),
		rows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "techsearch",
			Subsystem: "sdk",
			Name:      "result_rows",
			Help:      "Rows or suggestions returned per successful SDK operation.",
			Buckets:   []float64{0, 1, 10, 25, 100, 1000, 10000, 50000},
		}, []string{"operation"}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "techsearch",
			Subsystem: "sdk",
			Name:      "exports_truncated_total",
			Help:      "Exports whose record cap cut off matching rows.",
		}),
	}
	if err := reuseRegistered(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := reuseRegistered(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := reuseRegistered(reg, &m.rows); err != nil {
		return nil, err
	}
	if err := reuseRegistered(reg, &m.truncated); err != nil {
		return nil, err
	}
	return m, nil
}

// reuseRegistered registers *c, or points *c at the collector already
// registered under the same descriptor. Several clients can then share one
// registerer.
func reuseRegistered[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("techsearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("techsearch: metric registered with incompatible type %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and measures SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one operation. rows < 0 means the operation returns no rows.
func (o *observer) observe(op string, start time.Time, rows int, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, out).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
		if err == nil && rows >= 0 {
			o.metrics.rows.WithLabelValues(op).Observe(float64(rows))
		}
	}

	if o.logger == nil {
		return
	}
	switch out {
	case outcomeOK:
		o.logger.Debug("techsearch operation", "op", op, "duration", dur, "rows", rows)
	case outcomeInvalid:
		o.logger.Debug("techsearch rejected request", "op", op, "error", err)
	default:
		o.logger.Warn("techsearch operation failed", "op", op, "outcome", out, "duration", dur, "error", err)
	}
}

// exportTruncated counts an export that hit its record cap.
func (o *observer) exportTruncated() {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.truncated.Inc()
}
