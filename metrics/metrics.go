package metrics

import (
	"errors"
	"regexp"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	wapc "github.com/wapc/wapc-guest-tinygo"
	"github.com/wetdirt/wetdirt"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

var (
	// ErrInvalidMetricName indicates a metric name that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// isMetricNameValid validates metric names using the same pattern as tarmac callback validation.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:][a-zA-Z0-9_:]*$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Counter only goes up.
type Counter interface {
	Inc()
}

// Gauge tracks a value that goes up and down, such as in-flight work.
type Gauge interface {
	Inc()
	Dec()
}

// Histogram records observations such as latencies in seconds.
type Histogram interface {
	Observe(value float64)
}

// Client creates named metric handles. Emission through a handle is
// best-effort and never returns an error.
type Client interface {
	// NewCounter creates a named counter metric handle.
	NewCounter(name string) (Counter, error)

	// NewGauge creates a named gauge metric handle.
	NewGauge(name string) (Gauge, error)

	// NewHistogram creates a named histogram metric handle.
	NewHistogram(name string) (Histogram, error)
}

// Config controls how a HostMetrics instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig wetdirt.RuntimeConfig

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall

	// Prefix is prepended to every metric name. Functions sharing one host
	// registry use it to keep their series apart.
	Prefix string
}

// HostMetrics emits metrics through the Tarmac metrics capability.
type HostMetrics struct {
	runtime  wetdirt.RuntimeConfig
	hostCall HostCall
	prefix   string
}

// hostHandle is a named metric of one kind, keyed by the host function that
// records it. Emission failures are dropped.
type hostHandle struct {
	name string
	kind string
	send func(fn string, msg interface{ MarshalVT() ([]byte, error) })
}

var (
	_ Client    = (*HostMetrics)(nil)
	_ Counter   = (*hostHandle)(nil)
	_ Gauge     = (*hostHandle)(nil)
	_ Histogram = (*hostHandle)(nil)
)

// New creates a host metrics client. The prefix must itself be a valid
// metric name fragment.
func New(config Config) (*HostMetrics, error) {
	if config.Prefix != "" && !isMetricNameValid.MatchString(config.Prefix) {
		return nil, ErrInvalidMetricName
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &HostMetrics{runtime: config.SDKConfig.WithDefaults(), hostCall: hostCall, prefix: config.Prefix}, nil
}

func (c *HostMetrics) handle(kind, name string) (*hostHandle, error) {
	if !isMetricNameValid.MatchString(name) {
		return nil, ErrInvalidMetricName
	}

	namespace, hostCall := c.runtime.Namespace, c.hostCall
	return &hostHandle{
		name: c.prefix + name,
		kind: kind,
		send: func(fn string, msg interface{ MarshalVT() ([]byte, error) }) {
			payload, err := msg.MarshalVT()
			if err != nil {
				return
			}
			_, _ = hostCall(namespace, capabilityName, fn, payload)
		},
	}, nil
}

// NewCounter creates a named counter metric handle.
func (c *HostMetrics) NewCounter(name string) (Counter, error) {
	h, err := c.handle(fnCounter, name)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// NewGauge creates a named gauge metric handle.
func (c *HostMetrics) NewGauge(name string) (Gauge, error) {
	h, err := c.handle(fnGauge, name)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// NewHistogram creates a named histogram metric handle.
func (c *HostMetrics) NewHistogram(name string) (Histogram, error) {
	h, err := c.handle(fnHistogram, name)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (h *hostHandle) Inc() {
	if h.kind == fnCounter {
		h.send(fnCounter, &proto.MetricsCounter{Name: h.name})
		return
	}
	h.gauge(actionInc)
}

func (h *hostHandle) Dec() { h.gauge(actionDec) }

func (h *hostHandle) Observe(value float64) {
	h.send(fnHistogram, &proto.MetricsHistogram{Name: h.name, Value: value})
}

func (h *hostHandle) gauge(action string) {
	h.send(fnGauge, &proto.MetricsGauge{Name: h.name, Action: action})
}
