package bindings

import "time"

// Reasons reported to RouterMetrics.IncDropped.
const (
	DropMalformed       = "malformed"
	DropNoReceiver      = "no_receiver"
	DropUnknownRequest  = "unknown_request"
	DropOrdinalMismatch = "ordinal_mismatch"
)

// RouterMetrics records router traffic.
type RouterMetrics interface {
	// Count an incoming message of the given kind
	IncReceived(kind MessageKind)
	// Count a message written to the pipe
	IncSent(kind MessageKind)
	// Count an incoming message that nobody handled
	IncDropped(reason string)
	// Count a router shutdown
	IncClosed()
	// Change of the number of requests waiting for a response
	AddPending(delta int)
	// Time between sending a request and receiving its response
	ObserveResponseLatency(d time.Duration)
}

type NoopRouterMetrics struct{}

// IncClosed implements RouterMetrics.
func (n *NoopRouterMetrics) IncClosed() {}

// IncDropped implements RouterMetrics.
func (n *NoopRouterMetrics) IncDropped(reason string) {}

// IncReceived implements RouterMetrics.
func (n *NoopRouterMetrics) IncReceived(kind MessageKind) {}

// IncSent implements RouterMetrics.
func (n *NoopRouterMetrics) IncSent(kind MessageKind) {}

// ObserveResponseLatency implements RouterMetrics.
func (n *NoopRouterMetrics) ObserveResponseLatency(d time.Duration) {}

// AddPending implements RouterMetrics.
func (n *NoopRouterMetrics) AddPending(delta int) {}

var _ RouterMetrics = (*NoopRouterMetrics)(nil)
