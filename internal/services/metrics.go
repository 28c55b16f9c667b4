package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// coinsCredited sums coins added to balances, by ledger kind.
	coinsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_coins_credited_total",
			Help: "Coins credited to user balances.",
		},
		[]string{"kind"},
	)

	// coinsDebited sums coins spent, by ledger kind.
	coinsDebited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_coins_debited_total",
			Help: "Coins debited from user balances.",
		},
		[]string{"kind"},
	)

	// economyOps counts facade operations by outcome ("ok" or an error kind).
	economyOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_operations_total",
			Help: "Economy operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(coinsCredited, coinsDebited, economyOps)
}

// observeEntries records committed ledger entries. Call only after commit.
func observeEntries(kind string, amount int64) {
	switch {
	case amount > 0:
		coinsCredited.WithLabelValues(kind).Add(float64(amount))
	case amount < 0:
		coinsDebited.WithLabelValues(kind).Add(float64(-amount))
	}
}

func observeOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	economyOps.WithLabelValues(op, outcome).Inc()
}
