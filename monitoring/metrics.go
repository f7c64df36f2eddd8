package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/optrace/instrumentation/tracing"
)

// OpMetrics is a tracer that counts operator calls in Prometheus metrics.
type OpMetrics struct {
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	forwards *prometheus.CounterVec
	running  prometheus.Gauge
}

// NewOpMetrics creates the metrics. They are not registered yet.
func NewOpMetrics() *OpMetrics {
	return &OpMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optrace_op_calls_total",
				Help: "Number of traced operator calls",
			},
			[]string{"op"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optrace_op_failures_total",
				Help: "Number of traced operator calls that returned an error",
			},
			[]string{"op"},
		),
		forwards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optrace_op_forwards_total",
				Help: "Number of calls that only forwarded provenance",
			},
			[]string{"op"},
		),
		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "optrace_op_running",
				Help: "Number of traced operator calls that have not returned",
			},
		),
	}
}

// Register registers the metrics.
func (m *OpMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.calls, m.failures, m.forwards, m.running,
	} {
		err := reg.Register(c)
		if err != nil {
			return err
		}
	}

	return nil
}

// StartOp counts a call.
func (m *OpMetrics) StartOp(op tracing.OpStart) {
	m.calls.WithLabelValues(op.Name).Inc()
	m.running.Inc()
}

// EndOp counts a failure if the call failed.
func (m *OpMetrics) EndOp(op tracing.OpEnd) {
	m.running.Dec()

	if op.Err != nil {
		m.failures.WithLabelValues(op.Name).Inc()
	}
}

// ForwardOp counts a forward.
func (m *OpMetrics) ForwardOp(op tracing.OpForward) {
	m.forwards.WithLabelValues(op.Name).Inc()
}
