package rebalance

import (
	"math"
	"testing"

	"SlipScope/internal/domain/models"
)

func TestBuildProgramShape(t *testing.T) {
	st := models.PortfolioState{
		Holdings:        []float64{10, 20},
		ExpectedReturns: []float64{1.5, 1.1},
		MinReturn:       1.3,
	}
	p := buildProgram(st, nil)

	n := 2
	if p.Cols() != 3*n+1 {
		t.Fatalf("expected %d columns, got %d", 3*n+1, p.Cols())
	}
	if p.Rows != n+2 {
		t.Fatalf("expected %d rows, got %d", n+2, p.Rows)
	}
	if len(p.A) != p.Rows*p.Cols() || len(p.B) != p.Rows {
		t.Fatalf("inconsistent program dimensions")
	}

	// objective weights buys and sells equally, slack and bounds free
	for i := 0; i < 2*n; i++ {
		if p.C[i] != 1 {
			t.Fatalf("objective coefficient %d: got %v", i, p.C[i])
		}
	}
	for i := 2 * n; i < p.Cols(); i++ {
		if p.C[i] != 0 {
			t.Fatalf("slack coefficient %d must be zero, got %v", i, p.C[i])
		}
	}

	// return floor rhs: m*sum(h) - r·h = 1.3*30 - (15+22) = 2
	if math.Abs(p.B[1]-2.0) > 1e-12 {
		t.Fatalf("return rhs: got %v", p.B[1])
	}
	// long-only rows carry -h
	if p.B[2] != -10 || p.B[3] != -20 {
		t.Fatalf("holding bounds rhs: got %v %v", p.B[2], p.B[3])
	}
}

func TestBuildProgramAlphaWeights(t *testing.T) {
	st := models.PortfolioState{
		Holdings:        []float64{10, 20},
		ExpectedReturns: []float64{1.5, 1.1},
		MinReturn:       1.0,
	}
	costs := []models.AssetCost{{Alpha: 0.5}, {Alpha: 0}}
	p := buildProgram(st, costs)
	if p.C[0] != 1.5 || p.C[2] != 1.5 {
		t.Fatalf("alpha must weight both buy and sell terms: %v %v", p.C[0], p.C[2])
	}
	if p.C[1] != 1 || p.C[3] != 1 {
		t.Fatalf("zero alpha keeps unit weight: %v %v", p.C[1], p.C[3])
	}
}

func TestTradesTolerance(t *testing.T) {
	z := []float64{1e-12, 5, 0, 0, 0, 0, 0} // n=2: u, v, s, w
	x := trades(z, 2, 1e-9)
	if x[0] != 0 {
		t.Fatalf("sub-tolerance trade must be zeroed, got %v", x[0])
	}
	if x[1] != 5 {
		t.Fatalf("expected buy of 5, got %v", x[1])
	}
}
