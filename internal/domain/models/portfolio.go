package models

import (
	"fmt"
	"math"
)

// PortfolioState is the input to one rebalancing solve. Holdings and
// ExpectedReturns are positional and must have equal length. MinReturn
// is a total-value growth factor (1.5 means a 50% target return).
type PortfolioState struct {
	Holdings        []float64
	ExpectedReturns []float64
	MinReturn       float64
}

// Validate rejects malformed portfolio states before any solve.
func (p *PortfolioState) Validate() error {
	n := len(p.Holdings)
	if n < 1 {
		return fmt.Errorf("%w: holdings must not be empty", ErrInvalidInput)
	}
	if len(p.ExpectedReturns) != n {
		return fmt.Errorf("%w: holdings and expected returns length mismatch (%d vs %d)",
			ErrInvalidInput, n, len(p.ExpectedReturns))
	}
	for i, h := range p.Holdings {
		if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
			return fmt.Errorf("%w: holding %d must be finite and non-negative, got %v", ErrInvalidInput, i, h)
		}
	}
	for i, r := range p.ExpectedReturns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: expected return %d must be finite, got %v", ErrInvalidInput, i, r)
		}
	}
	if math.IsNaN(p.MinReturn) || math.IsInf(p.MinReturn, 0) {
		return fmt.Errorf("%w: min return must be finite, got %v", ErrInvalidInput, p.MinReturn)
	}
	return nil
}

// TotalValue returns the summed holdings.
func (p *PortfolioState) TotalValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h
	}
	return total
}

// TradeVector is the signed per-asset trade output of one solve.
// Negative entries are sells, positive entries are buys.
type TradeVector []float64

// Norm1 returns the sum of absolute trade amounts.
func (t TradeVector) Norm1() float64 {
	sum := 0.0
	for _, x := range t {
		sum += math.Abs(x)
	}
	return sum
}

// AssetCost is the optional per-asset transaction cost configuration.
// Alpha weights the linear cost term, Beta is a fixed per-trade charge.
// Both default to zero.
type AssetCost struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
}

// RebalanceSolution is the terminal output of a successful solve.
type RebalanceSolution struct {
	Trades         TradeVector `json:"trades"`
	Holdings       []float64   `json:"holdings"`
	Objective      float64     `json:"objective"`
	AchievedReturn float64     `json:"achieved_return"`
	FixedCost      float64     `json:"fixed_cost"`
}
