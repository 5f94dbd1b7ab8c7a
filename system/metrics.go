package system

import "time"

// ConnMetrics records transport level statistics of connection backed pipes.
type ConnMetrics interface {
	// Connection metrics
	IncConns()
	DecConns()
	IncTotalConns()
	IncFailedConns()
	ObserveConnDuration(duration time.Duration)

	// Data transfer metrics
	AddSentBytes(bytes int)
	AddReceivedBytes(bytes int)

	// Error metrics
	IncReadErrors()
	IncWriteErrors()
}

type NoopConnMetrics struct{}

// AddReceivedBytes implements ConnMetrics.
func (n *NoopConnMetrics) AddReceivedBytes(bytes int) {}

// AddSentBytes implements ConnMetrics.
func (n *NoopConnMetrics) AddSentBytes(bytes int) {}

// DecConns implements ConnMetrics.
func (n *NoopConnMetrics) DecConns() {}

// IncConns implements ConnMetrics.
func (n *NoopConnMetrics) IncConns() {}

// IncFailedConns implements ConnMetrics.
func (n *NoopConnMetrics) IncFailedConns() {}

// IncReadErrors implements ConnMetrics.
func (n *NoopConnMetrics) IncReadErrors() {}

// IncTotalConns implements ConnMetrics.
func (n *NoopConnMetrics) IncTotalConns() {}

// IncWriteErrors implements ConnMetrics.
func (n *NoopConnMetrics) IncWriteErrors() {}

// ObserveConnDuration implements ConnMetrics.
func (n *NoopConnMetrics) ObserveConnDuration(duration time.Duration) {}

var _ ConnMetrics = (*NoopConnMetrics)(nil)
