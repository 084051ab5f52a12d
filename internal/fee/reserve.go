// Package fee implements the fee reserve spec §4.4/§7 threads through
// every invocation as a pluggable `consume(units)` collaborator: a
// balance that is debited per call and that fails the invocation with
// OutOfCost once exhausted, kept deliberately separate from any
// per-instruction bytecode cost model (out of scope per spec §1).
package fee

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgerframe/callframe-engine/internal/engineerr"
)

// Reserve tracks a single transaction's cost-unit budget. It implements
// internal/dispatch's FeeReserve interface.
type Reserve struct {
	mu        sync.Mutex
	balance   uint64
	consumed  uint64
	metrics   *Metrics
	txSummary string
}

// NewReserve creates a Reserve pre-funded with balance cost units,
// recording consumption and exhaustion against metrics (nil disables
// metrics recording, matching the teacher's pattern of an optional
// *Metrics that callers may leave unset in tests).
func NewReserve(balance uint64, metrics *Metrics) *Reserve {
	return &Reserve{balance: balance, metrics: metrics}
}

// Consume debits units from the reserve, returning engineerr.OutOfCost
// (without mutating the balance) when the reserve cannot cover the
// request.
func (r *Reserve) Consume(units uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if units > r.balance {
		if r.metrics != nil {
			r.metrics.OutOfCostTotal.Inc()
		}
		return engineerr.OutOfCost(r.balance, units)
	}
	r.balance -= units
	r.consumed += units
	if r.metrics != nil {
		r.metrics.CostUnitsConsumedTotal.Add(float64(units))
	}
	return nil
}

// Balance returns the cost units still available.
func (r *Reserve) Balance() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance
}

// Consumed returns the total cost units debited so far.
func (r *Reserve) Consumed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumed
}

// Metrics holds the cost-unit Prometheus collectors exposed on the
// debug HTTP surface, grounded on the teacher's
// infrastructure/metrics.Metrics (CounterVec-per-concern registered
// against a shared registerer, with a NewWithRegistry variant for
// tests that shouldn't touch the default registry).
type Metrics struct {
	CostUnitsConsumedTotal prometheus.Counter
	OutOfCostTotal         prometheus.Counter
}

// NewMetrics registers the fee-reserve collectors against registerer.
// Passing prometheus.NewRegistry() keeps tests isolated from the
// process-global default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		CostUnitsConsumedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_fee_cost_units_consumed_total",
			Help: "Total cost units consumed across all invocations.",
		}),
		OutOfCostTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_fee_out_of_cost_total",
			Help: "Total invocations rejected because the fee reserve was exhausted.",
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.CostUnitsConsumedTotal, m.OutOfCostTotal)
	}
	return m
}
