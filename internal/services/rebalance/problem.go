package rebalance

import (
	"SlipScope/internal/domain/models"
	domsvc "SlipScope/internal/domain/service"
)

// buildProgram converts a portfolio state into LP standard form.
//
// The original problem over the signed trade vector x,
//
//	minimize  sum_i (1+alpha_i)·|x_i|
//	s.t.      r·(h+x) / sum(h) >= m
//	          sum(h+x) == sum(h)
//	          h + x >= 0            (long-only)
//
// becomes, with x = u - v (u,v >= 0), a slack s on the return floor,
// and post-trade holdings w = h + u - v,
//
//	minimize  c·[u v s w]
//	s.t.      sum(u) - sum(v)       = 0
//	          r·u - r·v - s         = m·sum(h) - r·h
//	          u_i - v_i - w_i       = -h_i          (i = 1..n)
//	          u, v, s, w >= 0.
//
// The long-only bound is what makes an excessive return floor
// infeasible: the maximum achievable return under value conservation is
// max_i(r_i), attained by concentrating all value in the best asset.
func buildProgram(st models.PortfolioState, costs []models.AssetCost) domsvc.LinearProgram {
	n := len(st.Holdings)
	cols := 3*n + 1
	rows := n + 2

	c := make([]float64, cols)
	for i := 0; i < n; i++ {
		weight := 1.0
		if costs != nil {
			weight += costs[i].Alpha
		}
		c[i] = weight
		c[n+i] = weight
	}

	a := make([]float64, rows*cols)
	b := make([]float64, rows)

	// row 0: value conservation
	for i := 0; i < n; i++ {
		a[i] = 1
		a[n+i] = -1
	}

	// row 1: return floor with slack
	row := a[cols : 2*cols]
	rhs := st.MinReturn * st.TotalValue()
	for i, r := range st.ExpectedReturns {
		row[i] = r
		row[n+i] = -r
		rhs -= r * st.Holdings[i]
	}
	row[2*n] = -1
	b[1] = rhs

	// rows 2..n+1: post-trade holdings stay non-negative
	for i := 0; i < n; i++ {
		row := a[(2+i)*cols : (3+i)*cols]
		row[i] = 1
		row[n+i] = -1
		row[2*n+1+i] = -1
		b[2+i] = -st.Holdings[i]
	}

	return domsvc.LinearProgram{C: c, A: a, B: b, Rows: rows}
}

// trades recovers the signed trade vector from the solver variables,
// zeroing entries below tolerance.
func trades(z []float64, n int, tol float64) models.TradeVector {
	x := make(models.TradeVector, n)
	for i := 0; i < n; i++ {
		v := z[i] - z[n+i]
		if v < tol && v > -tol {
			v = 0
		}
		x[i] = v
	}
	return x
}
