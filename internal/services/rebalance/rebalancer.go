package rebalance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SlipScope/internal/domain/models"
	domrepo "SlipScope/internal/domain/repository"
	domsvc "SlipScope/internal/domain/service"
)

// Rebalancer computes the single-period, value-conserving trade vector
// that satisfies a return floor while minimizing total absolute trade
// volume. The numeric solve is delegated to a LinearSolver capability;
// this type owns problem construction and validation only. A solve is
// synchronous, side-effect-free, and never retried.
type Rebalancer struct {
	solver  domsvc.LinearSolver
	costs   []models.AssetCost
	tol     float64
	metrics domrepo.Metrics
}

// Option configures Rebalancer.
type Option func(*Rebalancer)

// WithCosts sets the optional per-asset cost model. Alpha weights the
// linear objective terms; Beta is a fixed charge on the reported cost
// of each nonzero trade. Defaults to zero for every asset.
func WithCosts(costs []models.AssetCost) Option {
	return func(r *Rebalancer) { r.costs = costs }
}

// WithTolerance sets the numeric tolerance for zeroing trades.
func WithTolerance(tol float64) Option {
	return func(r *Rebalancer) {
		if tol > 0 {
			r.tol = tol
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(r *Rebalancer) { r.metrics = m }
}

// New creates a rebalancer backed by the given solver.
func New(solver domsvc.LinearSolver, opts ...Option) *Rebalancer {
	r := &Rebalancer{solver: solver, tol: 1e-9}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rebalance solves one period. It returns a solution, or
// service.ErrInfeasible when the return floor cannot be met under value
// conservation, or a wrapped solver error. Infeasibility is a distinct
// outcome and never reported as a zero-trade solution.
func (r *Rebalancer) Rebalance(ctx context.Context, st models.PortfolioState) (*models.RebalanceSolution, error) {
	if err := st.Validate(); err != nil {
		r.recordSolve("invalid")
		return nil, err
	}
	n := len(st.Holdings)
	if r.costs != nil && len(r.costs) != n {
		r.recordSolve("invalid")
		return nil, fmt.Errorf("%w: cost model length %d does not match %d assets",
			models.ErrInvalidInput, len(r.costs), n)
	}
	total := st.TotalValue()
	if total == 0 {
		r.recordSolve("invalid")
		return nil, fmt.Errorf("%w: portfolio has no value", models.ErrInvalidInput)
	}

	start := time.Now()
	prog := buildProgram(st, r.costs)
	z, opt, err := r.solver.Solve(ctx, prog)
	if r.metrics != nil {
		r.metrics.RecordLatency("solve", time.Since(start).Seconds())
	}
	if err != nil {
		switch {
		case errors.Is(err, domsvc.ErrInfeasible):
			r.recordSolve("infeasible")
		case errors.Is(err, domsvc.ErrUnbounded):
			r.recordSolve("unbounded")
		default:
			r.recordSolve("error")
		}
		return nil, fmt.Errorf("rebalance solve: %w", err)
	}
	r.recordSolve("ok")

	x := trades(z, n, r.tol)
	sol := &models.RebalanceSolution{
		Trades:    x,
		Holdings:  make([]float64, n),
		Objective: opt,
	}
	weighted := 0.0
	for i := range sol.Holdings {
		sol.Holdings[i] = st.Holdings[i] + x[i]
		weighted += st.ExpectedReturns[i] * sol.Holdings[i]
		if r.costs != nil && math.Abs(x[i]) > r.tol {
			sol.FixedCost += r.costs[i].Beta
		}
	}
	sol.AchievedReturn = weighted / total
	return sol, nil
}

func (r *Rebalancer) recordSolve(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordSolve(outcome)
	}
}
