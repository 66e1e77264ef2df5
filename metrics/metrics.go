// Package metrics records world activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wricardo/blockyard/game/engine"
)

const (
	namespace = "blockyard"
	subsystem = "world"
)

// Result label values
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Collector implements service.ActionRecorder on its own registry
type Collector struct {
	registry *prometheus.Registry

	actionsTotal   *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	treesGrown     prometheus.Counter
	machinesBuilt  *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	wood           *prometheus.GaugeVec
	trees          *prometheus.GaugeVec
}

// NewCollector creates the collectors and registers them together with the
// Go runtime and process collectors.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		// Commands by action and outcome
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "actions_total",
				Help:      "Total number of executed commands by action and result",
			},
			[]string{"action", "result"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "failures_total",
				Help:      "Total number of refused commands by failure category and reason",
			},
			[]string{"category", "reason"},
		),

		treesGrown: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "trees_grown_total",
				Help:      "Total number of trees grown by the growth tick",
			},
		),

		machinesBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "machines_built_total",
				Help:      "Total number of machines created",
			},
			[]string{"kind"},
		),

		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "action_duration_seconds",
				Help:      "Command execution latency",
				Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"action"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_sessions",
				Help:      "Number of sessions held in memory",
			},
		),

		wood: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "wood",
				Help:      "Wood stock per session",
			},
			[]string{"session"},
		),

		trees: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "trees",
				Help:      "Trees standing per session",
			},
			[]string{"session"},
		),
	}

	if err := c.register(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) register() error {
	metrics := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.actionsTotal,
		c.failuresTotal,
		c.treesGrown,
		c.machinesBuilt,
		c.actionDuration,
		c.activeSessions,
		c.wood,
		c.trees,
	}

	for _, metric := range metrics {
		if err := c.registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the registry the collectors live in
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordAction records one executed command
func (c *Collector) RecordAction(sessionID string, res engine.Result, elapsed time.Duration) {
	action := res.Action
	if action == "" {
		action = "unknown"
	}

	result := resultSuccess
	if !res.Success {
		result = resultFailure
		c.failuresTotal.WithLabelValues(string(res.Category), string(res.Reason)).Inc()
	}
	c.actionsTotal.WithLabelValues(action, result).Inc()
	c.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())

	if res.TreeGrown != nil {
		c.treesGrown.Inc()
	}
	if res.Success && res.Created != 0 {
		switch action {
		case engine.ActionCreateVehicle:
			c.machinesBuilt.WithLabelValues(string(engine.KindVehicle)).Inc()
		case engine.ActionCreateCrane:
			c.machinesBuilt.WithLabelValues(string(engine.KindCrane)).Inc()
		}
	}
}

// RecordWorld updates the per-session gauges. A nil state drops them.
func (c *Collector) RecordWorld(sessionID string, state *engine.WorldState) {
	if state == nil {
		c.wood.DeleteLabelValues(sessionID)
		c.trees.DeleteLabelValues(sessionID)
		return
	}
	c.wood.WithLabelValues(sessionID).Set(float64(state.Wood))
	c.trees.WithLabelValues(sessionID).Set(float64(state.Grid.Count(engine.Tree)))
}

// SetActiveSessions sets the in-memory session gauge
func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}
