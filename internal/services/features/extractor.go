package features

import (
	"math"

	"SlipScope/internal/domain/models"
	domrepo "SlipScope/internal/domain/repository"
)

// Extractor computes cost feature snapshots over a session. It is
// stateless between calls and never mutates the session; a snapshot is
// recomputed on demand and owned by the caller.
type Extractor struct {
	lookback int
	metrics  domrepo.Metrics
}

// ExtractorOption configures Extractor.
type ExtractorOption func(*Extractor)

// WithLookback sets the momentum lookback in trades.
func WithLookback(k int) ExtractorOption {
	return func(e *Extractor) {
		if k > 0 {
			e.lookback = k
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m domrepo.Metrics) ExtractorOption {
	return func(e *Extractor) { e.metrics = m }
}

// NewExtractor creates an extractor with a default lookback of 1 trade.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{lookback: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot computes all ten features over the session and window.
// The order argument supplies placement/fill context for the arrival
// cost feature; pass nil when no order context exists (the feature is
// then undefined). Undefined results carry NaN and Defined=false.
func (e *Extractor) Snapshot(s *Session, w Window, order *models.OrderFill) map[models.FeatureName]models.FeatureSnapshot {
	out := make(map[models.FeatureName]models.FeatureSnapshot, len(models.AllFeatures()))

	last, _ := s.Last()
	asOf := last.Timestamp

	put := func(name models.FeatureName, v float64, ok bool) {
		if ok {
			out[name] = models.DefinedValue(name, v, asOf)
		} else {
			out[name] = models.Undefined(name, asOf)
		}
		if e.metrics != nil {
			e.metrics.RecordFeature(string(name), ok)
		}
	}

	// arrival cost needs order context, not observations
	if order != nil {
		v, ok := ArrivalCost(order.PlacementPrice, order.FillPrice)
		put(models.FeatureArrivalCost, v, ok)
	} else {
		put(models.FeatureArrivalCost, math.NaN(), false)
	}

	quote, hasQuote := s.LastQuote()
	if hasQuote {
		v, ok := HalfSpread(quote.BidPrice, quote.AskPrice)
		put(models.FeatureHalfSpread, v, ok)
		v, ok = WeightedMid(quote.BidPrice, quote.BidSize, quote.AskPrice, quote.AskSize)
		put(models.FeatureWeightedMid, v, ok)
	} else {
		put(models.FeatureHalfSpread, math.NaN(), false)
		put(models.FeatureWeightedMid, math.NaN(), false)
	}

	trade, hasTrade := s.LastTrade()

	// bounce and liquidity rate use the book in force before the trade
	if hasTrade {
		if pre, ok := s.lastQuoteBefore(trade.Seq); ok {
			v, defined := BidAskBounce(trade.Price, pre.BidPrice, pre.AskPrice)
			put(models.FeatureBidAskBounce, v, defined)
			put(liquidityRate(trade, pre))
		} else {
			put(models.FeatureBidAskBounce, math.NaN(), false)
			put(models.FeatureLiquidityRate, math.NaN(), false)
		}
	} else {
		put(models.FeatureBidAskBounce, math.NaN(), false)
		put(models.FeatureLiquidityRate, math.NaN(), false)
	}

	trades := s.Trades(w)
	prices := make([]float64, len(trades))
	for i, t := range trades {
		prices[i] = t.Price
	}
	{
		v, ok := Momentum(prices, e.lookback)
		put(models.FeatureMomentum, v, ok)
	}

	// impact ratio: move between the last two trades over the current half-spread
	if hasTrade && hasQuote {
		if prev, ok := s.lastTradeBefore(trade.Seq); ok {
			hs, hsOK := HalfSpread(quote.BidPrice, quote.AskPrice)
			if hsOK {
				v, defined := ImpactRatio(prev.Price, trade.Price, hs)
				put(models.FeatureImpactRatio, v, defined)
			} else {
				put(models.FeatureImpactRatio, math.NaN(), false)
			}
		} else {
			put(models.FeatureImpactRatio, math.NaN(), false)
		}
	} else {
		put(models.FeatureImpactRatio, math.NaN(), false)
	}

	if hasTrade {
		if prev, ok := s.lastTradeBefore(trade.Seq); ok {
			gap, defined := TradeGap(prev.Timestamp, trade.Timestamp)
			put(models.FeatureTradeGap, gap.Seconds(), defined)
		} else {
			put(models.FeatureTradeGap, math.NaN(), false)
		}
	} else {
		put(models.FeatureTradeGap, math.NaN(), false)
	}

	{
		v, ok := TWAP(trades, asOf)
		put(models.FeatureTWAP, v, ok)
	}
	{
		v, ok := VWAP(trades)
		put(models.FeatureVWAP, v, ok)
	}

	return out
}

// liquidityRate resolves which side of the pre-trade book the trade
// consumed (at or above mid hits the ask) and computes the rate.
func liquidityRate(trade, pre models.Observation) (models.FeatureName, float64, bool) {
	if pre.BidPrice <= 0 || pre.AskPrice <= 0 {
		return models.FeatureLiquidityRate, math.NaN(), false
	}
	mid := (pre.BidPrice + pre.AskPrice) / 2
	size := pre.BidSize
	if trade.Price >= mid {
		size = pre.AskSize
	}
	v, ok := LiquidityRate(trade.Volume, size)
	return models.FeatureLiquidityRate, v, ok
}
