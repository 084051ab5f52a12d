package fee

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConsumeDebitsBalanceAndTracksConsumed(t *testing.T) {
	r := NewReserve(100, nil)

	if err := r.Consume(10); err != nil {
		t.Fatalf("consume(10): %v", err)
	}
	if err := r.Consume(40); err != nil {
		t.Fatalf("consume(40): %v", err)
	}
	if got := r.Balance(); got != 50 {
		t.Fatalf("expected balance 50, got %d", got)
	}
	if got := r.Consumed(); got != 50 {
		t.Fatalf("expected consumed 50, got %d", got)
	}
}

func TestConsumeFailsWithoutMutatingBalanceWhenExhausted(t *testing.T) {
	r := NewReserve(5, nil)

	if err := r.Consume(10); err == nil {
		t.Fatalf("expected an OutOfCost error when requesting more than the balance")
	}
	if got := r.Balance(); got != 5 {
		t.Fatalf("expected balance to remain 5 after a rejected consume, got %d", got)
	}
	if got := r.Consumed(); got != 0 {
		t.Fatalf("expected consumed to remain 0 after a rejected consume, got %d", got)
	}
}

func TestConsumeRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := NewReserve(10, m)

	if err := r.Consume(4); err != nil {
		t.Fatalf("consume(4): %v", err)
	}
	if got := testutil.ToFloat64(m.CostUnitsConsumedTotal); got != 4 {
		t.Fatalf("expected cost_units_consumed_total=4, got %v", got)
	}

	if err := r.Consume(100); err == nil {
		t.Fatalf("expected an OutOfCost error")
	}
	if got := testutil.ToFloat64(m.OutOfCostTotal); got != 1 {
		t.Fatalf("expected out_of_cost_total=1, got %v", got)
	}
}
