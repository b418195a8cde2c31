// Package metrics exposes prometheus instruments for the accounting ledger
// and the HTTP surface.
package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Ledger captures accounting-engine health signals.
type Ledger struct {
	purchases      *prometheus.CounterVec
	secondsSold    prometheus.Counter
	secondsGranted prometheus.Counter
	refunds        prometheus.Counter
	rewardIngress  prometheus.Counter
	rewardEgress   prometheus.Counter
	sharesIssued   prometheus.Counter
	sharesBurned   prometheus.Counter
}

// NewLedger registers the ledger instruments against reg.
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenura_purchases_total",
			Help: "Completed subscription purchases by tier.",
		}, []string{"tier"}),
		secondsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_seconds_sold_total",
			Help: "Subscription seconds added through purchases.",
		}),
		secondsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_seconds_granted_total",
			Help: "Subscription seconds issued through grants.",
		}),
		refunds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_refunds_total",
			Help: "Completed subscription refunds.",
		}),
		rewardIngress: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_reward_ingress_total",
			Help: "Value allocated into the reward pool.",
		}),
		rewardEgress: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_reward_egress_total",
			Help: "Value claimed out of the reward pool.",
		}),
		sharesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_reward_shares_issued_total",
			Help: "Reward shares issued, approximate above 2^53.",
		}),
		sharesBurned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenura_reward_shares_burned_total",
			Help: "Reward shares burned, approximate above 2^53.",
		}),
	}
	reg.MustRegister(
		m.purchases, m.secondsSold, m.secondsGranted, m.refunds,
		m.rewardIngress, m.rewardEgress, m.sharesIssued, m.sharesBurned,
	)
	return m
}

func (m *Ledger) ObservePurchase(tier string, seconds int64) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(tier).Inc()
	m.secondsSold.Add(float64(seconds))
}

func (m *Ledger) ObserveGrant(seconds int64) {
	if m == nil {
		return
	}
	m.secondsGranted.Add(float64(seconds))
}

func (m *Ledger) ObserveRefund() {
	if m == nil {
		return
	}
	m.refunds.Inc()
}

func (m *Ledger) ObserveRewardIngress(amount *big.Int) {
	if m == nil {
		return
	}
	m.rewardIngress.Add(bigFloat(amount))
}

func (m *Ledger) ObserveRewardEgress(amount *big.Int) {
	if m == nil {
		return
	}
	m.rewardEgress.Add(bigFloat(amount))
}

func (m *Ledger) ObserveSharesIssued(shares *big.Int) {
	if m == nil {
		return
	}
	m.sharesIssued.Add(bigFloat(shares))
}

func (m *Ledger) ObserveSharesBurned(shares *big.Int) {
	if m == nil {
		return
	}
	m.sharesBurned.Add(bigFloat(shares))
}

func bigFloat(v *big.Int) float64 {
	if v == nil || v.Sign() <= 0 {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// Module provides ledger and HTTP metrics on the default registry.
var Module = fx.Module("observability.metrics",
	fx.Provide(
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
		NewLedger,
		NewHTTP,
	),
)
