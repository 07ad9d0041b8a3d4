package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	domsvc "SlipScope/internal/domain/service"
)

func TestSimplexSolvesBasicProgram(t *testing.T) {
	// minimize x0 + x1 subject to x0 + x1 = 2, x >= 0
	p := domsvc.LinearProgram{
		C:    []float64{1, 1},
		A:    []float64{1, 1},
		B:    []float64{2},
		Rows: 1,
	}
	z, opt, err := NewSimplex().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(opt-2) > 1e-9 {
		t.Fatalf("unexpected optimum %v", opt)
	}
	if math.Abs(z[0]+z[1]-2) > 1e-9 {
		t.Fatalf("constraint violated: %v", z)
	}
}

func TestSimplexInfeasible(t *testing.T) {
	// x0 = -1 with x >= 0 has no solution
	p := domsvc.LinearProgram{
		C:    []float64{1},
		A:    []float64{1},
		B:    []float64{-1},
		Rows: 1,
	}
	_, _, err := NewSimplex().Solve(context.Background(), p)
	if !errors.Is(err, domsvc.ErrInfeasible) {
		t.Fatalf("expected infeasible, got %v", err)
	}
}

func TestSimplexUnbounded(t *testing.T) {
	// minimize -x0 with x0 - x1 = 0 lets x0 grow without bound
	p := domsvc.LinearProgram{
		C:    []float64{-1, 0},
		A:    []float64{1, -1},
		B:    []float64{0},
		Rows: 1,
	}
	_, _, err := NewSimplex().Solve(context.Background(), p)
	if !errors.Is(err, domsvc.ErrUnbounded) {
		t.Fatalf("expected unbounded, got %v", err)
	}
}

func TestSimplexMalformedProgram(t *testing.T) {
	p := domsvc.LinearProgram{C: []float64{1}, A: []float64{1, 2}, B: []float64{1}, Rows: 1}
	if _, _, err := NewSimplex().Solve(context.Background(), p); err == nil {
		t.Fatalf("expected error for malformed program")
	}
}

func TestSimplexHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := domsvc.LinearProgram{C: []float64{1}, A: []float64{1}, B: []float64{1}, Rows: 1}
	if _, _, err := NewSimplex().Solve(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
