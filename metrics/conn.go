package metrics

import (
	"time"

	"github.com/czx-lab/mojo/system"
)

type (
	// ConnMetrics records transport statistics in prometheus.
	ConnMetrics struct {
		// connection metrics
		activeConns  Gauge
		totalConns   Counter
		connDuration Histogram

		// message metrics
		receivedBytes Counter
		sentBytes     Counter

		// error metrics
		errors Counter
	}
	ConnMetricsConf struct {
		Namespace string `json:",default=mojo"`
		Subsystem string `json:",default=transport"`
	}
)

var _ system.ConnMetrics = (*ConnMetrics)(nil)

func NewConnMetrics(conf ConnMetricsConf) *ConnMetrics {
	return &ConnMetrics{
		activeConns: NewGauge(&VectorOption{
			Namespace: conf.Namespace,
			Subsystem: conf.Subsystem,
			Name:      "active_connections",
			Help:      "current number of active connections",
		}),
		totalConns: NewCounter(&VectorOption{
			Namespace: conf.Namespace,
			Subsystem: conf.Subsystem,
			Name:      "connections_total",
			Help:      "total number of connections",
		}),
		receivedBytes: NewCounter(&VectorOption{
			Namespace: conf.Namespace,
			Subsystem: conf.Subsystem,
			Name:      "received_bytes_total",
			Help:      "total bytes received",
		}),
		sentBytes: NewCounter(&VectorOption{
			Namespace: conf.Namespace,
			Subsystem: conf.Subsystem,
			Name:      "sent_bytes_total",
			Help:      "total bytes sent",
		}),
		connDuration: NewHistogram(&HistogramVecOpts{
			VectorOption: VectorOption{
				Namespace: conf.Namespace,
				Subsystem: conf.Subsystem,
				Name:      "connection_duration_seconds",
				Help:      "connection duration in seconds",
			},
			Buckets: []float64{1, 10, 60, 300, 600, 1800, 3600},
		}),
		errors: NewCounter(&VectorOption{
			Namespace: conf.Namespace,
			Subsystem: conf.Subsystem,
			Name:      "errors_total",
			Help:      "transport errors by type",
			Labels:    []string{"type"}, // read/write/connect
		}),
	}
}

// AddReceivedBytes implements system.ConnMetrics.
func (m *ConnMetrics) AddReceivedBytes(bytes int) {
	m.receivedBytes.Add(float64(bytes))
}

// AddSentBytes implements system.ConnMetrics.
func (m *ConnMetrics) AddSentBytes(bytes int) {
	m.sentBytes.Add(float64(bytes))
}

// DecConns implements system.ConnMetrics.
func (m *ConnMetrics) DecConns() {
	m.activeConns.Dec()
}

// IncConns implements system.ConnMetrics.
func (m *ConnMetrics) IncConns() {
	m.activeConns.Inc()
}

// IncFailedConns implements system.ConnMetrics.
func (m *ConnMetrics) IncFailedConns() {
	m.errors.Inc("connect")
}

// IncReadErrors implements system.ConnMetrics.
func (m *ConnMetrics) IncReadErrors() {
	m.errors.Inc("read")
}

// IncTotalConns implements system.ConnMetrics.
func (m *ConnMetrics) IncTotalConns() {
	m.totalConns.Inc()
}

// IncWriteErrors implements system.ConnMetrics.
func (m *ConnMetrics) IncWriteErrors() {
	m.errors.Inc("write")
}

// ObserveConnDuration implements system.ConnMetrics.
func (m *ConnMetrics) ObserveConnDuration(duration time.Duration) {
	m.connDuration.Observe(duration.Seconds())
}
