package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the simulation engine.
type Metrics struct {
	CandlesTotal    prometheus.Counter     // Candles committed to the rolling history
	BreakoutsTotal  *prometheus.CounterVec // Breakout events by direction
	TradesTotal     *prometheus.CounterVec // Closed trades by outcome
	ReactionSeconds prometheus.Histogram   // Detection-to-entry delay for breakout trades
	ActiveLevels    prometheus.Gauge       // Current number of active S/R levels
}

// New registers all instruments on the given registerer and returns
// them. Callers pass a dedicated registry so repeated construction
// (as in tests) never collides.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CandlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalptrainer_candles_total",
			Help: "Total simulated candles committed",
		}),
		BreakoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalptrainer_breakouts_total",
			Help: "Total breakout events detected (by direction)",
		}, []string{"direction"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalptrainer_trades_total",
			Help: "Total closed practice trades (by outcome)",
		}, []string{"outcome"}),
		ReactionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalptrainer_reaction_seconds",
			Help:    "Reaction time between breakout detection and entry confirmation",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5},
		}),
		ActiveLevels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalptrainer_active_levels",
			Help: "Current number of active support/resistance levels",
		}),
	}

	reg.MustRegister(
		m.CandlesTotal,
		m.BreakoutsTotal,
		m.TradesTotal,
		m.ReactionSeconds,
		m.ActiveLevels,
	)
	return m
}
