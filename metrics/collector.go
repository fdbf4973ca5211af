// Package metrics exposes invocation and polling metrics for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yllada/vpn-tray/events"
)

// Collector owns the application's Prometheus metrics.
type Collector struct {
	invocations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	queueDepth   prometheus.Gauge
	state        prometheus.Gauge
	stateChanges prometheus.Counter
	surfaced     prometheus.Counter
}

// NewCollector creates the metrics and registers them with registry.
func NewCollector(registry prometheus.Registerer) *Collector {
	c := &Collector{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vpntray_invocations_total",
				Help: "Finished tool invocations by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vpntray_invocation_duration_seconds",
				Help:    "Wall-clock duration of tool invocations",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"action"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vpntray_queue_depth",
			Help: "Invocations queued or running in the serializer",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vpntray_connection_state",
			Help: "Current connection state (0 unknown, 1 disconnected, 2 connecting, 3 connected, 4 disconnecting)",
		}),
		stateChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpntray_state_changes_total",
			Help: "Published status changes",
		}),
		surfaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpntray_surfaced_results_total",
			Help: "Results shown to the user immediately",
		}),
	}

	registry.MustRegister(c.invocations, c.duration, c.queueDepth, c.state, c.stateChanges, c.surfaced)
	return c
}

// ObservePerformed records one finished invocation.
func (c *Collector) ObservePerformed(ev events.ActionPerformed) {
	c.invocations.WithLabelValues(ev.ID, ev.Outcome).Inc()
	c.duration.WithLabelValues(ev.ID).Observe(ev.Elapsed.Seconds())
}

// SetQueueDepth records the serializer depth.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// ObserveState records a status change.
func (c *Collector) ObserveState(ev events.StateChanged) {
	c.state.Set(float64(ev.Current.State))
	c.stateChanges.Inc()
}

// Subscribe wires the collector to the bus.
func (c *Collector) Subscribe(bus *events.Bus) (unsubscribe func()) {
	u1 := bus.Performed.Subscribe(c.ObservePerformed)
	u2 := bus.StateChanged.Subscribe(c.ObserveState)
	u3 := bus.Surfaced.Subscribe(func(events.ActionPerformed) { c.surfaced.Inc() })
	return func() {
		u1()
		u2()
		u3()
	}
}
