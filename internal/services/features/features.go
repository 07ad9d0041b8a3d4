package features

import (
	"math"
	"time"

	"SlipScope/internal/domain/models"
)

// Cost feature formulas. Every function returns (value, ok) where
// ok=false is the undefined result: insufficient history or a degenerate
// denominator. Undefined is a normal outcome callers must handle, not a
// fault.

// ArrivalCost is the slippage between order placement price and fill
// price: p1 - p0. Undefined when either price is missing (a fill that
// never occurred).
func ArrivalCost(placement, fill float64) (float64, bool) {
	if placement <= 0 || fill <= 0 {
		return math.NaN(), false
	}
	return fill - placement, true
}

// HalfSpread is the cost of crossing half the quoted spread: (a-b)/2.
// Undefined when either side of the book is absent.
func HalfSpread(bid, ask float64) (float64, bool) {
	if bid <= 0 || ask <= 0 {
		return math.NaN(), false
	}
	return (ask - bid) / 2, true
}

// WeightedMid is the size-weighted mid (micro-price): each side's price
// weighted by the opposite side's displayed size. Undefined when both
// sizes are zero.
func WeightedMid(bidPrice, bidSize, askPrice, askSize float64) (float64, bool) {
	total := bidSize + askSize
	if total == 0 {
		return math.NaN(), false
	}
	return (bidPrice*askSize + askPrice*bidSize) / total, true
}

// BidAskBounce places a trade price inside the quoted spread:
// (t-b)/(a-b). The raw ratio is reported; values outside [0,1] mean the
// trade printed outside the spread and are intentionally not clamped.
// Undefined when the spread is zero.
func BidAskBounce(trade, bid, ask float64) (float64, bool) {
	if ask == bid {
		return math.NaN(), false
	}
	return (trade - bid) / (ask - bid), true
}

// Momentum is the simple return over a lookback of k trades:
// (p_now - p_{now-k}) / p_{now-k}. Undefined with fewer than k+1 prices.
func Momentum(prices []float64, k int) (float64, bool) {
	if k < 1 || len(prices) < k+1 {
		return math.NaN(), false
	}
	ref := prices[len(prices)-1-k]
	if ref == 0 {
		return math.NaN(), false
	}
	return (prices[len(prices)-1] - ref) / ref, true
}

// ImpactRatio relates the price move between consecutive trades to the
// current half-spread: |p_next - p_last| / halfSpread. Undefined when
// the half-spread is zero.
func ImpactRatio(lastPrice, nextPrice, halfSpread float64) (float64, bool) {
	if halfSpread == 0 {
		return math.NaN(), false
	}
	return math.Abs(nextPrice-lastPrice) / halfSpread, true
}

// LiquidityRate is the share of displayed size a trade consumed:
// volume / pre-trade size at the hit side. Undefined when the pre-trade
// size is zero.
func LiquidityRate(volume, preTradeSize float64) (float64, bool) {
	if preTradeSize == 0 {
		return math.NaN(), false
	}
	return volume / preTradeSize, true
}

// TradeGap is the non-negative duration between two consecutive trades.
// Undefined for the first trade in a session (zero prev timestamp).
func TradeGap(prev, now time.Time) (time.Duration, bool) {
	if prev.IsZero() {
		return 0, false
	}
	d := now.Sub(prev)
	if d < 0 {
		d = 0
	}
	return d, true
}

// TWAP is the time-weighted average of prices over a window. Each price
// is weighted by the duration it was in force; the last price holds
// until end. Undefined for an empty window. A single observation yields
// its price regardless of duration.
func TWAP(trades []models.Observation, end time.Time) (float64, bool) {
	if len(trades) == 0 {
		return math.NaN(), false
	}
	var weighted, total float64
	for i, t := range trades {
		var dt float64
		if i+1 < len(trades) {
			dt = trades[i+1].Timestamp.Sub(t.Timestamp).Seconds()
		} else {
			dt = end.Sub(t.Timestamp).Seconds()
		}
		if dt < 0 {
			dt = 0
		}
		weighted += t.Price * dt
		total += dt
	}
	if total == 0 {
		// all prices held for zero time: the last print is the average
		return trades[len(trades)-1].Price, true
	}
	return weighted / total, true
}

// VWAP is the volume-weighted average of trade prices over a window.
// Undefined when the summed volume is zero.
func VWAP(trades []models.Observation) (float64, bool) {
	var weighted, total float64
	for _, t := range trades {
		weighted += t.Price * t.Volume
		total += t.Volume
	}
	if total == 0 {
		if len(trades) == 1 {
			// a lone print is its own average regardless of volume
			return trades[0].Price, true
		}
		return math.NaN(), false
	}
	return weighted / total, true
}
