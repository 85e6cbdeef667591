package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus registers metrics with a Prometheus registerer. Asking for the
// same name twice returns the collector registered first.
type Prometheus struct {
	reg prometheus.Registerer
}

var _ Client = (*Prometheus)(nil)

// NewPrometheus returns a client that registers into reg, or into the default
// registerer when reg is nil.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Prometheus{reg: reg}
}

// NewCounter creates or reuses a counter.
func (p *Prometheus) NewCounter(name string) (Counter, error) {
	if !isMetricNameValid.MatchString(name) {
		return nil, ErrInvalidMetricName
	}
	c, err := register(p.reg, prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: name}))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewGauge creates or reuses a gauge.
func (p *Prometheus) NewGauge(name string) (Gauge, error) {
	if !isMetricNameValid.MatchString(name) {
		return nil, ErrInvalidMetricName
	}
	g, err := register(p.reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: name}))
	if err != nil {
		return nil, err
	}
	return g, nil
}

// NewHistogram creates or reuses a histogram with the default buckets.
func (p *Prometheus) NewHistogram(name string) (Histogram, error) {
	if !isMetricNameValid.MatchString(name) {
		return nil, ErrInvalidMetricName
	}
	h, err := register(p.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    name,
		Buckets: prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, err
	}
	return h, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}
