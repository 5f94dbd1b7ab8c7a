package metrics

import prom "github.com/prometheus/client_golang/prometheus"

type promCounter struct {
	vec *prom.CounterVec
}

var _ Counter = (*promCounter)(nil)

func NewCounter(opt *VectorOption) Counter {
	if opt == nil {
		return nil
	}
	return &promCounter{
		vec: register(prom.NewCounterVec(prom.CounterOpts{
			Namespace: opt.Namespace,
			Subsystem: opt.Subsystem,
			Name:      opt.Name,
			Help:      opt.Help,
		}, opt.Labels)),
	}
}

// Add implements Counter.
func (c *promCounter) Add(delta float64, labels ...string) {
	update(func() { c.vec.WithLabelValues(labels...).Add(delta) })
}

// Inc implements Counter.
func (c *promCounter) Inc(labels ...string) {
	update(func() { c.vec.WithLabelValues(labels...).Inc() })
}

// Close implements Counter.
func (c *promCounter) Close() error {
	return unregister(c.vec, "counter")
}
