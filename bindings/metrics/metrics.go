// Package metrics records router traffic in prometheus.
package metrics

import (
	"time"

	"github.com/czx-lab/mojo/bindings"
	"github.com/czx-lab/mojo/metrics"
)

type (
	RouterMetrics struct {
		received metrics.Counter
		sent     metrics.Counter
		dropped  metrics.Counter
		closed   metrics.Counter
		pending  metrics.Gauge
		latency  metrics.Histogram
	}
	RouterMetricsConf struct {
		Namespace string `json:",default=mojo"`
		Subsystem string `json:",default=router"`
	}
)

var _ bindings.RouterMetrics = (*RouterMetrics)(nil)

// NewRouterMetrics returns the metrics of one router. Routers created with
// the same configuration share the underlying vectors.
func NewRouterMetrics(conf RouterMetricsConf) *RouterMetrics {
	opt := func(name, help string, labels ...string) *metrics.VectorOption {
		return &metrics.VectorOption{
			Namespace: conf.Namespace,
			Subsystem: conf.Subsystem,
			Name:      name,
			Help:      help,
			Labels:    labels,
		}
	}

	return &RouterMetrics{
		received: metrics.NewCounter(opt("messages_received_total", "incoming messages by kind", "kind")),
		sent:     metrics.NewCounter(opt("messages_sent_total", "outgoing messages by kind", "kind")),
		dropped:  metrics.NewCounter(opt("messages_dropped_total", "unhandled incoming messages by reason", "reason")),
		closed:   metrics.NewCounter(opt("closed_total", "number of closed routers")),
		pending:  metrics.NewGauge(opt("pending_requests", "requests waiting for a response")),
		latency: metrics.NewHistogram(&metrics.HistogramVecOpts{
			VectorOption: *opt("response_latency_seconds", "time from request to response"),
			Buckets:      []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
}

// IncReceived implements bindings.RouterMetrics.
func (m *RouterMetrics) IncReceived(kind bindings.MessageKind) {
	m.received.Inc(kind.String())
}

// IncSent implements bindings.RouterMetrics.
func (m *RouterMetrics) IncSent(kind bindings.MessageKind) {
	m.sent.Inc(kind.String())
}

// IncDropped implements bindings.RouterMetrics.
func (m *RouterMetrics) IncDropped(reason string) {
	m.dropped.Inc(reason)
}

// IncClosed implements bindings.RouterMetrics.
func (m *RouterMetrics) IncClosed() {
	m.closed.Inc()
}

// AddPending implements bindings.RouterMetrics.
func (m *RouterMetrics) AddPending(delta int) {
	m.pending.Add(float64(delta))
}

// ObserveResponseLatency implements bindings.RouterMetrics.
func (m *RouterMetrics) ObserveResponseLatency(d time.Duration) {
	m.latency.Observe(d.Seconds())
}
