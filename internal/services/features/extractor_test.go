package features

import (
	"math"
	"testing"
	"time"

	"SlipScope/internal/domain/models"
)

func buildSession(t *testing.T) *Session {
	t.Helper()
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := NewSession("BTCUSDT")
	obs := []models.Observation{
		models.NewQuote("BTCUSDT", base, 99.0, 200, 101.0, 100),
		models.NewTrade("BTCUSDT", base.Add(time.Second), 100.0, 10),
		models.NewQuote("BTCUSDT", base.Add(2*time.Second), 99.5, 150, 100.5, 120),
		models.NewTrade("BTCUSDT", base.Add(3*time.Second), 100.5, 30),
	}
	for _, o := range obs {
		if err := s.Append(o); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return s
}

func TestSnapshotComputesAllFeatures(t *testing.T) {
	s := buildSession(t)
	ex := NewExtractor()
	snap := ex.Snapshot(s, Window{}, nil)

	if len(snap) != len(models.AllFeatures()) {
		t.Fatalf("expected %d features, got %d", len(models.AllFeatures()), len(snap))
	}
	for _, name := range models.AllFeatures() {
		fs, ok := snap[name]
		if !ok {
			t.Fatalf("missing feature %s", name)
		}
		if !fs.Defined && !math.IsNaN(fs.Value) {
			t.Fatalf("undefined %s must carry NaN, got %v", name, fs.Value)
		}
	}
}

func TestSnapshotValues(t *testing.T) {
	s := buildSession(t)
	ex := NewExtractor()
	snap := ex.Snapshot(s, Window{}, nil)

	// latest quote: 99.5 / 100.5
	hs := snap[models.FeatureHalfSpread]
	if !hs.Defined || math.Abs(hs.Value-0.5) > 1e-12 {
		t.Fatalf("half spread: %+v", hs)
	}
	wm := snap[models.FeatureWeightedMid]
	want := (99.5*120 + 100.5*150) / 270
	if !wm.Defined || math.Abs(wm.Value-want) > 1e-12 {
		t.Fatalf("weighted mid: got %v want %v", wm.Value, want)
	}

	// last trade 100.5 against the pre-trade book 99.5/100.5: at the ask
	bounce := snap[models.FeatureBidAskBounce]
	if !bounce.Defined || math.Abs(bounce.Value-1.0) > 1e-12 {
		t.Fatalf("bounce: %+v", bounce)
	}

	// trade at the ask consumed ask size 120 with volume 30
	lr := snap[models.FeatureLiquidityRate]
	if !lr.Defined || math.Abs(lr.Value-0.25) > 1e-12 {
		t.Fatalf("liquidity rate: %+v", lr)
	}

	// |100.5-100.0| / 0.5
	ir := snap[models.FeatureImpactRatio]
	if !ir.Defined || math.Abs(ir.Value-1.0) > 1e-12 {
		t.Fatalf("impact ratio: %+v", ir)
	}

	gap := snap[models.FeatureTradeGap]
	if !gap.Defined || gap.Value != 2.0 {
		t.Fatalf("trade gap: %+v", gap)
	}

	mom := snap[models.FeatureMomentum]
	if !mom.Defined || math.Abs(mom.Value-0.005) > 1e-12 {
		t.Fatalf("momentum: %+v", mom)
	}

	vwap := snap[models.FeatureVWAP]
	wantVWAP := (100.0*10 + 100.5*30) / 40
	if !vwap.Defined || math.Abs(vwap.Value-wantVWAP) > 1e-12 {
		t.Fatalf("vwap: got %v want %v", vwap.Value, wantVWAP)
	}

	// without order context arrival cost is undefined, never an error
	if snap[models.FeatureArrivalCost].Defined {
		t.Fatalf("arrival cost should be undefined without order context")
	}

	last, _ := s.Last()
	if !snap[models.FeatureVWAP].AsOf.Equal(last.Timestamp) {
		t.Fatalf("as_of must be the latest observation timestamp")
	}
}

func TestSnapshotWithOrderContext(t *testing.T) {
	s := buildSession(t)
	ex := NewExtractor()
	snap := ex.Snapshot(s, Window{}, &models.OrderFill{PlacementPrice: 100.0, FillPrice: 100.4})
	ac := snap[models.FeatureArrivalCost]
	if !ac.Defined || math.Abs(ac.Value-0.4) > 1e-12 {
		t.Fatalf("arrival cost: %+v", ac)
	}
}

func TestSnapshotMomentumInsufficientHistory(t *testing.T) {
	s := buildSession(t) // two trades
	ex := NewExtractor(WithLookback(5))
	snap := ex.Snapshot(s, Window{}, nil)
	mom := snap[models.FeatureMomentum]
	if mom.Defined {
		t.Fatalf("momentum with short history must be undefined, got %v", mom.Value)
	}
	if !math.IsNaN(mom.Value) {
		t.Fatalf("undefined momentum must be NaN")
	}
}

func TestSnapshotEmptySession(t *testing.T) {
	ex := NewExtractor()
	snap := ex.Snapshot(NewSession("X"), Window{}, nil)
	for name, fs := range snap {
		if fs.Defined {
			t.Fatalf("feature %s defined on empty session", name)
		}
	}
}
