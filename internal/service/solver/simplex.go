package solver

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	domsvc "SlipScope/internal/domain/service"
)

// Simplex implements the LinearSolver capability with gonum's simplex
// method. The solve is deterministic for a given program, so failures
// are reported once and never retried.
type Simplex struct {
	tol float64
}

// SimplexOption configures Simplex.
type SimplexOption func(*Simplex)

// WithTolerance sets the pivot tolerance passed to the solver.
func WithTolerance(tol float64) SimplexOption {
	return func(s *Simplex) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

// NewSimplex creates a simplex solver with a default tolerance.
func NewSimplex(opts ...SimplexOption) *Simplex {
	s := &Simplex{tol: 1e-10}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs the simplex method on a standard-form program. Infeasible
// and unbounded outcomes map to the domain sentinels; anything else is
// wrapped as a solver error.
func (s *Simplex) Solve(ctx context.Context, p domsvc.LinearProgram) ([]float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	cols := p.Cols()
	if cols == 0 || p.Rows == 0 || len(p.A) != p.Rows*cols || len(p.B) != p.Rows {
		return nil, 0, fmt.Errorf("malformed program: %d rows, %d cols, %d coefficients", p.Rows, cols, len(p.A))
	}

	a := mat.NewDense(p.Rows, cols, p.A)
	opt, z, err := lp.Simplex(p.C, a, p.B, s.tol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, 0, domsvc.ErrInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return nil, 0, domsvc.ErrUnbounded
	case err != nil:
		return nil, 0, fmt.Errorf("simplex: %w", err)
	}
	return z, opt, nil
}

var _ domsvc.LinearSolver = (*Simplex)(nil)
