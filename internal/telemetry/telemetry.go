// Package telemetry holds the Mind's Prometheus metric surface, adapted
// from the teacher's internal/metrics.Registry. The core never serves an
// HTTP endpoint itself (spec §6, "The core is a library, not a server"); a
// host embeds Registry.Gatherer() behind whatever scrape endpoint it runs.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric the core updates during dispatch.
type Registry struct {
	reg *prometheus.Registry

	PathwayWeight         *prometheus.GaugeVec
	PathwayActivationRate *prometheus.GaugeVec
	PathwayBreakerState   *prometheus.GaugeVec // 0=closed, 1=open, 2=half-open

	ModeDispatchTotal *prometheus.CounterVec
	ElectionOutcomes  *prometheus.CounterVec
	DecompositionWave *prometheus.HistogramVec
}

// New builds a fresh, independent registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		PathwayWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mind_pathway_weight",
			Help: "Current selection weight of a pathway",
		}, []string{"pathway"}),
		PathwayActivationRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mind_pathway_activation_rate",
			Help: "Activations / max(synapses, 1) for a pathway",
		}, []string{"pathway"}),
		PathwayBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mind_pathway_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"pathway"}),
		ModeDispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mind_mode_dispatch_total",
			Help: "Requests dispatched per thinking mode",
		}, []string{"mode", "status"}),
		ElectionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mind_election_outcomes_total",
			Help: "Election winners by strategy and winning pathway",
		}, []string{"strategy", "winner"}),
		DecompositionWave: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mind_decomposition_wave_size",
			Help:    "Number of sub-goals executed per wave",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}, []string{}),
	}
	reg.MustRegister(
		r.PathwayWeight,
		r.PathwayActivationRate,
		r.PathwayBreakerState,
		r.ModeDispatchTotal,
		r.ElectionOutcomes,
		r.DecompositionWave,
	)
	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for a host's own
// scrape handler; the core does not mount one itself.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// BreakerStateValue maps a breaker state name to the gauge encoding used by
// PathwayBreakerState.
func BreakerStateValue(state string) float64 {
	switch state {
	case "open":
		return 1
	case "half-open":
		return 2
	default:
		return 0
	}
}
