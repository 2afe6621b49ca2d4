package patentsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type sdkMetrics struct {
	calls    *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newSDKMetrics registers the collectors, reusing ones a previous Client
// already put on reg.
func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "patentsearch", Subsystem: "sdk", Name: name, Help: help}
	}
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("calls_total", "SDK calls by operation and outcome.")),
			[]string{"operation", "outcome"}),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("retries_total", "SDK retry attempts by operation.")),
			[]string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "patentsearch",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency including retries.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
	var err error
	if m.calls, err = reuse(reg, m.calls); err != nil {
		return nil, err
	}
	if m.retries, err = reuse(reg, m.retries); err != nil {
		return nil, err
	}
	if m.duration, err = reuse(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func reuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return c, fmt.Errorf("patentsearch: register metric: %w", err)
	}
	existing, ok := dup.ExistingCollector.(C)
	if !ok {
		return c, fmt.Errorf("patentsearch: metric registered as %T", dup.ExistingCollector)
	}
	return existing, nil
}

// observer records calls. Nil fields disable logging or metrics.
type observer struct {
	log     *slog.Logger
	metrics *sdkMetrics
}

// outcome labels a call: "ok", the API error code, or "transport" when no
// API answer arrived.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	return "transport"
}

func (o *observer) retried(op string, attempt int, wait time.Duration, err error) {
	if o.metrics != nil {
		o.metrics.retries.WithLabelValues(op).Inc()
	}
	if o.log != nil {
		o.log.Info("patentsearch call retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)
	}
}

func (o *observer) done(op string, start time.Time, err error) {
	took := time.Since(start)
	out := outcome(err)
	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, out).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(took.Seconds())
	}
	switch {
	case o.log == nil:
	case err != nil:
		o.log.Warn("patentsearch call failed", "op", op, "outcome", out, "duration", took, "error", err)
	default:
		o.log.Debug("patentsearch call completed", "op", op, "duration", took)
	}
}
