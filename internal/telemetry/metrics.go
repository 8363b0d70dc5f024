// Package telemetry exposes Prometheus counters and histograms for the
// scanner and monitor orchestrators: scans run, signals detected, orders
// filled, limit denials, and decision latency. This is ambient
// instrumentation, not the dashboard the spec's Non-goals exclude — there
// is no UI here, only a /metrics endpoint for an external scraper.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every counter/histogram the engine emits to.
type Metrics struct {
	ScansTotal       *prometheus.CounterVec
	SignalsTotal     *prometheus.CounterVec
	FillsTotal       *prometheus.CounterVec
	DenialsTotal     *prometheus.CounterVec
	DecisionLatency  *prometheus.HistogramVec
	DrawdownGauge    *prometheus.GaugeVec
}

// New registers every metric against reg and returns the bundle. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry across package-level test runs.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtle",
			Name:      "scans_total",
			Help:      "Total number of scan cycles run, by outcome.",
		}, []string{"outcome"}),

		SignalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtle",
			Name:      "signals_total",
			Help:      "Total number of breakout signals detected, by system and direction.",
		}, []string{"system", "direction"}),

		FillsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtle",
			Name:      "fills_total",
			Help:      "Total number of broker fills, by action (entry, pyramid, exit).",
		}, []string{"action"}),

		DenialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtle",
			Name:      "denials_total",
			Help:      "Total number of candidate units denied, by limit reason.",
		}, []string{"reason"}),

		DecisionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turtle",
			Name:      "decision_latency_seconds",
			Help:      "Latency of the per-position monitor decision function.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),

		DrawdownGauge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "turtle",
			Name:      "drawdown_fraction",
			Help:      "Current portfolio drawdown as a fraction of peak equity.",
		}, []string{"portfolio"}),
	}
}
