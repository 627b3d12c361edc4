package ipstamp

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a Prometheus-backed implementation of Metrics.
type PrometheusMetrics struct {
	writesTotal *prom.CounterVec
}

// NewPrometheusMetrics creates PrometheusMetrics and registers its collectors on registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the collector is already
// registered, the existing compatible collector is reused.
func NewPrometheusMetrics(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	collector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: "ipstamp_writes_total",
			Help: "Attributes stamped with a client IP, by event (before_insert, before_update, touch) and value source (override, request, none).",
		},
		[]string{"event", "source"},
	)

	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prom.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil, fmt.Errorf("register metric %q: %w", "ipstamp_writes_total", err)
		}
		existing, ok := alreadyRegistered.ExistingCollector.(*prom.CounterVec)
		if !ok {
			return nil, fmt.Errorf("metric %q already registered with incompatible collector type %T", "ipstamp_writes_total", alreadyRegistered.ExistingCollector)
		}
		collector = existing
	}

	return &PrometheusMetrics{writesTotal: collector}, nil
}

func (m *PrometheusMetrics) RecordWrite(ev Event, source string, count int) {
	m.writesTotal.WithLabelValues(string(ev), source).Add(float64(count))
}

func (m *PrometheusMetrics) RecordTouch(source string, count int) {
	m.writesTotal.WithLabelValues("touch", source).Add(float64(count))
}
