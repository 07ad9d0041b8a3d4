package rebalance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"SlipScope/internal/domain/models"
	domsvc "SlipScope/internal/domain/service"
	"SlipScope/internal/service/solver"
)

const tol = 1e-6

func refState() models.PortfolioState {
	return models.PortfolioState{
		Holdings:        []float64{45, 48, 65, 68, 68},
		ExpectedReturns: []float64{1.847, 1.624, 1.384, 1.298, 1.057},
		MinReturn:       1.5,
	}
}

func TestRebalanceReferenceScenario(t *testing.T) {
	r := New(solver.NewSimplex())
	st := refState()

	sol, err := r.Rebalance(context.Background(), st)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	// value conservation
	total := 0.0
	for _, h := range sol.Holdings {
		total += h
	}
	if math.Abs(total-294) > 294*tol {
		t.Fatalf("total value not conserved: %v", total)
	}

	// return floor
	if sol.AchievedReturn < st.MinReturn-tol {
		t.Fatalf("return floor not met: %v", sol.AchievedReturn)
	}

	// reference optimum: concentrate the shortfall in the best asset,
	// funded from the worst
	want := []float64{82.78, 48, 65, 68, 30.22}
	for i, h := range sol.Holdings {
		if math.Abs(h-want[i]) > 0.1 {
			t.Fatalf("holding %d: got %v want ~%v", i, h, want[i])
		}
	}

	// no holding goes short
	for i, h := range sol.Holdings {
		if h < -tol {
			t.Fatalf("holding %d went short: %v", i, h)
		}
	}
}

func TestRebalanceNoTradeWhenFloorAlreadyMet(t *testing.T) {
	r := New(solver.NewSimplex())
	st := refState()
	st.MinReturn = 1.2 // initial weighted return ~1.3985 already exceeds this

	sol, err := r.Rebalance(context.Background(), st)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.Trades.Norm1() > tol {
		t.Fatalf("expected zero-trade optimum, got |x|=%v", sol.Trades.Norm1())
	}
}

func TestRebalanceInfeasible(t *testing.T) {
	r := New(solver.NewSimplex())
	st := refState()
	st.MinReturn = 2.0 // above max expected return 1.847

	_, err := r.Rebalance(context.Background(), st)
	if !errors.Is(err, domsvc.ErrInfeasible) {
		t.Fatalf("expected infeasible, got %v", err)
	}
}

func TestRebalanceIdempotent(t *testing.T) {
	r := New(solver.NewSimplex())
	st := refState()

	a, err := r.Rebalance(context.Background(), st)
	if err != nil {
		t.Fatalf("first solve: %v", err)
	}
	b, err := r.Rebalance(context.Background(), st)
	if err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if math.Abs(a.Trades.Norm1()-b.Trades.Norm1()) > tol {
		t.Fatalf("objective not stable across identical solves: %v vs %v",
			a.Trades.Norm1(), b.Trades.Norm1())
	}
}

func TestRebalanceValidation(t *testing.T) {
	r := New(solver.NewSimplex())
	cases := []models.PortfolioState{
		{Holdings: nil, ExpectedReturns: nil, MinReturn: 1},
		{Holdings: []float64{1, 2}, ExpectedReturns: []float64{1}, MinReturn: 1},
		{Holdings: []float64{-1}, ExpectedReturns: []float64{1}, MinReturn: 1},
		{Holdings: []float64{1}, ExpectedReturns: []float64{math.NaN()}, MinReturn: 1},
		{Holdings: []float64{1}, ExpectedReturns: []float64{1}, MinReturn: math.Inf(1)},
		{Holdings: []float64{0, 0}, ExpectedReturns: []float64{1, 1}, MinReturn: 1},
	}
	for i, st := range cases {
		if _, err := r.Rebalance(context.Background(), st); !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestRebalanceCostModel(t *testing.T) {
	st := refState()
	costs := []models.AssetCost{
		{Alpha: 0, Beta: 1.5},
		{}, {}, {},
		{Alpha: 0, Beta: 2.5},
	}
	r := New(solver.NewSimplex(), WithCosts(costs))

	sol, err := r.Rebalance(context.Background(), st)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	// assets 0 and 4 trade in the reference optimum
	if math.Abs(sol.FixedCost-4.0) > 1e-9 {
		t.Fatalf("expected fixed cost 4.0, got %v", sol.FixedCost)
	}
}

func TestRebalanceCostModelLengthMismatch(t *testing.T) {
	r := New(solver.NewSimplex(), WithCosts([]models.AssetCost{{}}))
	if _, err := r.Rebalance(context.Background(), refState()); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input for cost model mismatch, got %v", err)
	}
}

type failingSolver struct{ err error }

func (f failingSolver) Solve(context.Context, domsvc.LinearProgram) ([]float64, float64, error) {
	return nil, 0, f.err
}

func TestRebalanceSolverErrorPropagates(t *testing.T) {
	boom := fmt.Errorf("singular basis")
	r := New(failingSolver{err: boom})
	_, err := r.Rebalance(context.Background(), refState())
	if !errors.Is(err, boom) {
		t.Fatalf("solver error must propagate as-is, got %v", err)
	}
}
