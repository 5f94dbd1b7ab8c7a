package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

type (
	// VectorOption describes a metric vector.
	VectorOption struct {
		Namespace string
		Subsystem string
		Name      string
		Help      string
		Labels    []string
	}
	// Metrics is a registered collector that can be removed again.
	Metrics interface {
		Close() error
	}
	Counter interface {
		Metrics
		Inc(labels ...string)
		Add(delta float64, labels ...string)
	}
	Gauge interface {
		Metrics
		Set(value float64, labels ...string)
		Inc(labels ...string)
		Dec(labels ...string)
		Add(delta float64, labels ...string)
	}
	Histogram interface {
		Metrics
		Observe(value float64, labels ...string)
	}
)

// update runs fn only while metrics are enabled.
func update(fn func()) {
	if !Enabled() {
		return
	}
	fn()
}

// register registers c with the default registry. A collector with the same
// descriptor registered earlier is returned instead, so that every router or
// server of a process shares one vector.
func register[C prom.Collector](c C) C {
	if err := prom.Register(c); err != nil {
		var are prom.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func unregister(c prom.Collector, kind string) error {
	if prom.Unregister(c) {
		return nil
	}
	return errors.New("metrics: failed to unregister " + kind)
}
