package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput marks malformed inputs rejected before computation.
var ErrInvalidInput = errors.New("invalid input")

// ObservationKind distinguishes trade and quote records.
type ObservationKind string

const (
	ObsTrade ObservationKind = "trade"
	ObsQuote ObservationKind = "quote"
)

// Observation is the atomic market-data record: a trade print or a
// top-of-book quote. A zero price on a quote side means that side is absent.
type Observation struct {
	Symbol    string
	Seq       int // insertion order within a session, breaks timestamp ties
	Timestamp time.Time
	Kind      ObservationKind

	// trade fields
	Price  float64
	Volume float64

	// quote fields
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64
}

// IsTrade reports whether the observation is a trade print.
func (o *Observation) IsTrade() bool { return o.Kind == ObsTrade }

// IsQuote reports whether the observation is a quote.
func (o *Observation) IsQuote() bool { return o.Kind == ObsQuote }

// Validate rejects malformed observations. Degenerate but well-formed
// values (zero spread, zero size) are allowed; they surface later as
// undefined feature values, not as input errors.
func (o *Observation) Validate() error {
	switch o.Kind {
	case ObsTrade:
		if o.Price <= 0 {
			return fmt.Errorf("%w: trade price must be positive, got %v", ErrInvalidInput, o.Price)
		}
		if o.Volume < 0 {
			return fmt.Errorf("%w: trade volume must be non-negative, got %v", ErrInvalidInput, o.Volume)
		}
	case ObsQuote:
		if o.BidPrice < 0 || o.AskPrice < 0 {
			return fmt.Errorf("%w: quote prices must be non-negative", ErrInvalidInput)
		}
		if o.BidSize < 0 || o.AskSize < 0 {
			return fmt.Errorf("%w: quote sizes must be non-negative", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown observation kind %q", ErrInvalidInput, o.Kind)
	}
	if o.Timestamp.IsZero() {
		return fmt.Errorf("%w: observation timestamp is required", ErrInvalidInput)
	}
	return nil
}

// NewTrade builds a trade observation.
func NewTrade(symbol string, ts time.Time, price, volume float64) Observation {
	return Observation{Symbol: symbol, Timestamp: ts, Kind: ObsTrade, Price: price, Volume: volume}
}

// NewQuote builds a quote observation.
func NewQuote(symbol string, ts time.Time, bidPrice, bidSize, askPrice, askSize float64) Observation {
	return Observation{
		Symbol: symbol, Timestamp: ts, Kind: ObsQuote,
		BidPrice: bidPrice, BidSize: bidSize, AskPrice: askPrice, AskSize: askSize,
	}
}
