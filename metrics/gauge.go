package metrics

import prom "github.com/prometheus/client_golang/prometheus"

type promGauge struct {
	vec *prom.GaugeVec
}

var _ Gauge = (*promGauge)(nil)

func NewGauge(opt *VectorOption) Gauge {
	if opt == nil {
		return nil
	}
	return &promGauge{
		vec: register(prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: opt.Namespace,
			Subsystem: opt.Subsystem,
			Name:      opt.Name,
			Help:      opt.Help,
		}, opt.Labels)),
	}
}

// Set implements Gauge.
func (g *promGauge) Set(value float64, labels ...string) {
	update(func() { g.vec.WithLabelValues(labels...).Set(value) })
}

// Inc implements Gauge.
func (g *promGauge) Inc(labels ...string) {
	update(func() { g.vec.WithLabelValues(labels...).Inc() })
}

// Dec implements Gauge.
func (g *promGauge) Dec(labels ...string) {
	update(func() { g.vec.WithLabelValues(labels...).Dec() })
}

// Add implements Gauge.
func (g *promGauge) Add(delta float64, labels ...string) {
	update(func() { g.vec.WithLabelValues(labels...).Add(delta) })
}

// Close implements Gauge.
func (g *promGauge) Close() error {
	return unregister(g.vec, "gauge")
}
