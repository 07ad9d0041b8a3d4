package features

import (
	"math"
	"testing"
	"time"

	"SlipScope/internal/domain/models"
)

func TestArrivalCost(t *testing.T) {
	v, ok := ArrivalCost(100.0, 100.25)
	if !ok {
		t.Fatalf("expected defined")
	}
	if math.Abs(v-0.25) > 1e-12 {
		t.Fatalf("unexpected arrival cost %v", v)
	}
	if _, ok := ArrivalCost(100.0, 0); ok {
		t.Fatalf("expected undefined without a fill")
	}
}

func TestHalfSpread(t *testing.T) {
	v, ok := HalfSpread(99.0, 101.0)
	if !ok || v != 1.0 {
		t.Fatalf("unexpected half spread %v defined=%v", v, ok)
	}
	if _, ok := HalfSpread(0, 101.0); ok {
		t.Fatalf("expected undefined with absent bid")
	}
}

func TestWeightedMid(t *testing.T) {
	// bid weighted by ask size and vice versa
	v, ok := WeightedMid(99.0, 300, 101.0, 100)
	if !ok {
		t.Fatalf("expected defined")
	}
	want := (99.0*100 + 101.0*300) / 400
	if math.Abs(v-want) > 1e-12 {
		t.Fatalf("got %v want %v", v, want)
	}
	if _, ok := WeightedMid(99.0, 0, 101.0, 0); ok {
		t.Fatalf("expected undefined with empty book")
	}
}

func TestBidAskBounce(t *testing.T) {
	cases := []struct {
		trade, bid, ask float64
		want            float64
	}{
		{99.0, 99.0, 101.0, 0},   // at bid
		{101.0, 99.0, 101.0, 1},  // at ask
		{100.0, 99.0, 101.0, 0.5},
		{102.0, 99.0, 101.0, 1.5}, // outside spread, not clamped
		{98.0, 99.0, 101.0, -0.5},
	}
	for _, c := range cases {
		v, ok := BidAskBounce(c.trade, c.bid, c.ask)
		if !ok {
			t.Fatalf("expected defined for trade=%v", c.trade)
		}
		if math.Abs(v-c.want) > 1e-12 {
			t.Fatalf("trade=%v got %v want %v", c.trade, v, c.want)
		}
	}
	if _, ok := BidAskBounce(100.0, 100.0, 100.0); ok {
		t.Fatalf("expected undefined with zero spread")
	}
}

func TestMomentum(t *testing.T) {
	prices := []float64{100, 102, 101, 103}
	v, ok := Momentum(prices, 3)
	if !ok {
		t.Fatalf("expected defined")
	}
	if math.Abs(v-0.03) > 1e-12 {
		t.Fatalf("unexpected momentum %v", v)
	}
	if _, ok := Momentum(prices, 4); ok {
		t.Fatalf("expected undefined with insufficient history")
	}
	if _, ok := Momentum(nil, 1); ok {
		t.Fatalf("expected undefined on empty history")
	}
}

func TestImpactRatio(t *testing.T) {
	v, ok := ImpactRatio(100.0, 100.5, 0.25)
	if !ok || v != 2.0 {
		t.Fatalf("unexpected impact ratio %v defined=%v", v, ok)
	}
	if _, ok := ImpactRatio(100.0, 100.5, 0); ok {
		t.Fatalf("expected undefined with zero half-spread")
	}
}

func TestLiquidityRate(t *testing.T) {
	v, ok := LiquidityRate(30, 100)
	if !ok || v != 0.3 {
		t.Fatalf("unexpected liquidity rate %v defined=%v", v, ok)
	}
	if _, ok := LiquidityRate(30, 0); ok {
		t.Fatalf("expected undefined with zero displayed size")
	}
}

func TestTradeGap(t *testing.T) {
	now := time.Date(2024, 10, 10, 10, 0, 5, 0, time.UTC)
	d, ok := TradeGap(now.Add(-2*time.Second), now)
	if !ok || d != 2*time.Second {
		t.Fatalf("unexpected gap %v defined=%v", d, ok)
	}
	if _, ok := TradeGap(time.Time{}, now); ok {
		t.Fatalf("expected undefined for first trade")
	}
}

func TestTWAP(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	trades := []models.Observation{
		models.NewTrade("X", base, 100, 1),
		models.NewTrade("X", base.Add(10*time.Second), 110, 1),
	}
	// 100 in force 10s, 110 in force 20s
	v, ok := TWAP(trades, base.Add(30*time.Second))
	if !ok {
		t.Fatalf("expected defined")
	}
	want := (100.0*10 + 110.0*20) / 30
	if math.Abs(v-want) > 1e-9 {
		t.Fatalf("got %v want %v", v, want)
	}
}

func TestTWAPSingleObservation(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	single := []models.Observation{models.NewTrade("X", base, 105, 7)}
	v, ok := TWAP(single, base) // zero duration window
	if !ok || v != 105 {
		t.Fatalf("single-observation TWAP should be its price, got %v defined=%v", v, ok)
	}
	if _, ok := TWAP(nil, base); ok {
		t.Fatalf("expected undefined for empty window")
	}
}

func TestVWAP(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	trades := []models.Observation{
		models.NewTrade("X", base, 100, 10),
		models.NewTrade("X", base.Add(time.Second), 110, 30),
	}
	v, ok := VWAP(trades)
	if !ok {
		t.Fatalf("expected defined")
	}
	want := (100.0*10 + 110.0*30) / 40
	if math.Abs(v-want) > 1e-9 {
		t.Fatalf("got %v want %v", v, want)
	}
}

func TestVWAPSingleObservation(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	single := []models.Observation{models.NewTrade("X", base, 105, 0)}
	v, ok := VWAP(single)
	if !ok || v != 105 {
		t.Fatalf("single-observation VWAP should be its price, got %v defined=%v", v, ok)
	}
	zeroVol := []models.Observation{
		models.NewTrade("X", base, 100, 0),
		models.NewTrade("X", base.Add(time.Second), 110, 0),
	}
	if _, ok := VWAP(zeroVol); ok {
		t.Fatalf("expected undefined with zero total volume")
	}
}
