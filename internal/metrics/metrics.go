// Package metrics exposes the engine's Prometheus counters and
// gauges, served on /metrics by cmd/trader.
//
// Grounded on _examples/chidi150c-coinbase/metrics.go (package-level
// prometheus.New*Vec declarations registered in init(), labeled
// counters per strategy/side/result).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TradesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_trades_executed_total",
			Help: "Closed trades by strategy and result (win|loss).",
		},
		[]string{"strategy", "result"},
	)

	RiskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_risk_rejections_total",
			Help: "Trades rejected by the risk manager, by strategy.",
		},
		[]string{"strategy"},
	)

	OpenExposureUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_open_exposure_usd",
			Help: "Total open cost basis across all positions.",
		},
	)

	BalanceUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_balance_usd",
			Help: "Venue account balance.",
		},
	)

	RiskState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trader_risk_state",
			Help: "Risk manager state indicator (one labeled series per state, flipped 0/1).",
		},
		[]string{"state"},
	)

	DirectionalWinRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_directional_win_rate",
			Help: "Directional engine's trailing win rate.",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trader_cycle_duration_seconds",
			Help:    "Wall-clock duration of one scheduler cycle.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(TradesExecuted, RiskRejections)
	prometheus.MustRegister(OpenExposureUSD, BalanceUSD)
	prometheus.MustRegister(RiskState, DirectionalWinRate)
	prometheus.MustRegister(CycleDuration)
}

// SetRiskState flips the single active labeled series for current and
// clears the other two, keeping dashboards simple (grounded on
// chidi150c-coinbase's botModelMode convention).
func SetRiskState(current string) {
	for _, s := range []string{"NORMAL", "COOLDOWN", "RECOVERY"} {
		v := 0.0
		if s == current {
			v = 1.0
		}
		RiskState.WithLabelValues(s).Set(v)
	}
}
