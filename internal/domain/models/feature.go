package models

import (
	"encoding/json"
	"math"
	"time"
)

// FeatureName identifies one of the canonical cost features.
type FeatureName string

const (
	FeatureArrivalCost   FeatureName = "arrival_cost"
	FeatureHalfSpread    FeatureName = "half_spread"
	FeatureWeightedMid   FeatureName = "weighted_mid"
	FeatureBidAskBounce  FeatureName = "bid_ask_bounce"
	FeatureMomentum      FeatureName = "momentum"
	FeatureImpactRatio   FeatureName = "impact_ratio"
	FeatureLiquidityRate FeatureName = "liquidity_rate"
	FeatureTradeGap      FeatureName = "trade_gap"
	FeatureTWAP          FeatureName = "twap"
	FeatureVWAP          FeatureName = "vwap"
)

// AllFeatures returns the canonical feature names in stable order.
func AllFeatures() []FeatureName {
	return []FeatureName{
		FeatureArrivalCost,
		FeatureHalfSpread,
		FeatureWeightedMid,
		FeatureBidAskBounce,
		FeatureMomentum,
		FeatureImpactRatio,
		FeatureLiquidityRate,
		FeatureTradeGap,
		FeatureTWAP,
		FeatureVWAP,
	}
}

// FeatureSnapshot is one computed feature value at a point in time.
// Undefined values carry Defined=false and NaN; that is an expected
// state (insufficient history, degenerate denominator), not an error.
type FeatureSnapshot struct {
	Name    FeatureName `json:"name"`
	Value   float64     `json:"value"`
	Defined bool        `json:"defined"`
	AsOf    time.Time   `json:"as_of"`
}

// snapshotJSON mirrors FeatureSnapshot with a nullable value so that
// undefined snapshots (NaN) survive JSON encoding.
type snapshotJSON struct {
	Name    FeatureName `json:"name"`
	Value   *float64    `json:"value"`
	Defined bool        `json:"defined"`
	AsOf    time.Time   `json:"as_of"`
}

func (s FeatureSnapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{Name: s.Name, Defined: s.Defined, AsOf: s.AsOf}
	if s.Defined {
		v := s.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (s *FeatureSnapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Name = in.Name
	s.Defined = in.Defined
	s.AsOf = in.AsOf
	if in.Value != nil {
		s.Value = *in.Value
	} else {
		s.Value = math.NaN()
	}
	return nil
}

// Undefined builds an undefined snapshot for a feature.
func Undefined(name FeatureName, asOf time.Time) FeatureSnapshot {
	return FeatureSnapshot{Name: name, Value: math.NaN(), Defined: false, AsOf: asOf}
}

// DefinedValue builds a defined snapshot for a feature.
func DefinedValue(name FeatureName, v float64, asOf time.Time) FeatureSnapshot {
	return FeatureSnapshot{Name: name, Value: v, Defined: true, AsOf: asOf}
}

// OrderFill carries the order-level context for the arrival cost feature:
// the price at order placement and the realized fill price.
type OrderFill struct {
	PlacementPrice float64 `json:"placement_price"`
	FillPrice      float64 `json:"fill_price"`
}
