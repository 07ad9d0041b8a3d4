package service

import (
	"context"
	"errors"
)

// Solver outcome sentinels. Infeasible and unbounded are distinct
// terminal outcomes, never folded into a zero-trade solution.
var (
	ErrInfeasible = errors.New("problem is infeasible")
	ErrUnbounded  = errors.New("problem is unbounded")
)

// LinearProgram is a standard-form linear program:
//
//	minimize  c·z  subject to  A z = b,  z >= 0.
//
// A is stored row-major with Rows*len(C) entries.
type LinearProgram struct {
	C    []float64
	A    []float64
	B    []float64
	Rows int
}

// Cols returns the number of variables.
func (p *LinearProgram) Cols() int { return len(p.C) }

// LinearSolver is the external numeric capability the rebalancer
// delegates to. Implementations return the optimal vector and objective
// value, or ErrInfeasible/ErrUnbounded, or a wrapped numerical error.
// A solve is one-shot and deterministic; callers do not retry.
type LinearSolver interface {
	Solve(ctx context.Context, p LinearProgram) (z []float64, opt float64, err error)
}
