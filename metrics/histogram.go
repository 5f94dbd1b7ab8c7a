package metrics

import prom "github.com/prometheus/client_golang/prometheus"

type (
	HistogramVecOpts struct {
		VectorOption
		Buckets []float64
	}
	promHistogram struct {
		vec *prom.HistogramVec
	}
)

var _ Histogram = (*promHistogram)(nil)

func NewHistogram(opt *HistogramVecOpts) Histogram {
	if opt == nil {
		return nil
	}
	return &promHistogram{
		vec: register(prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: opt.Namespace,
			Subsystem: opt.Subsystem,
			Name:      opt.Name,
			Help:      opt.Help,
			Buckets:   opt.Buckets,
		}, opt.Labels)),
	}
}

// Observe implements Histogram.
func (h *promHistogram) Observe(value float64, labels ...string) {
	update(func() { h.vec.WithLabelValues(labels...).Observe(value) })
}

// Close implements Histogram.
func (h *promHistogram) Close() error {
	return unregister(h.vec, "histogram")
}
