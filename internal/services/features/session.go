package features

import (
	"fmt"

	"SlipScope/internal/domain/models"
)

// Session is an ordered, append-only sequence of observations for one
// symbol. Insertion order is chronological order; equal timestamps are
// disambiguated by sequence index. Observations are never mutated after
// recording.
type Session struct {
	symbol string
	obs    []models.Observation
}

// NewSession creates an empty session.
func NewSession(symbol string) *Session {
	return &Session{symbol: symbol}
}

// FromObservations builds a session from a chronological slice,
// validating every record.
func FromObservations(symbol string, obs []models.Observation) (*Session, error) {
	s := NewSession(symbol)
	for i := range obs {
		if err := s.Append(obs[i]); err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
	}
	return s, nil
}

// Append records one observation. Timestamps must be non-decreasing;
// malformed records are rejected, never silently corrected.
func (s *Session) Append(o models.Observation) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if n := len(s.obs); n > 0 && o.Timestamp.Before(s.obs[n-1].Timestamp) {
		return fmt.Errorf("%w: non-monotonic timestamp %v before %v",
			models.ErrInvalidInput, o.Timestamp, s.obs[n-1].Timestamp)
	}
	o.Seq = len(s.obs)
	if o.Symbol == "" {
		o.Symbol = s.symbol
	}
	s.obs = append(s.obs, o)
	return nil
}

// Symbol returns the session symbol.
func (s *Session) Symbol() string { return s.symbol }

// Len returns the number of recorded observations.
func (s *Session) Len() int { return len(s.obs) }

// At returns the observation at index i.
func (s *Session) At(i int) models.Observation { return s.obs[i] }

// Last returns the most recent observation, or false for an empty session.
func (s *Session) Last() (models.Observation, bool) {
	if len(s.obs) == 0 {
		return models.Observation{}, false
	}
	return s.obs[len(s.obs)-1], true
}

// LastTrade returns the most recent trade at or before index end (exclusive).
func (s *Session) lastTradeBefore(end int) (models.Observation, bool) {
	for i := end - 1; i >= 0; i-- {
		if s.obs[i].IsTrade() {
			return s.obs[i], true
		}
	}
	return models.Observation{}, false
}

// LastTrade returns the most recent trade in the session.
func (s *Session) LastTrade() (models.Observation, bool) {
	return s.lastTradeBefore(len(s.obs))
}

// LastQuote returns the most recent quote in the session.
func (s *Session) LastQuote() (models.Observation, bool) {
	return s.lastQuoteBefore(len(s.obs))
}

// lastQuoteBefore returns the most recent quote strictly before index end.
func (s *Session) lastQuoteBefore(end int) (models.Observation, bool) {
	for i := end - 1; i >= 0; i-- {
		if s.obs[i].IsQuote() {
			return s.obs[i], true
		}
	}
	return models.Observation{}, false
}

// Trades returns the trades inside the window, chronological order.
func (s *Session) Trades(w Window) []models.Observation {
	return w.filter(s.obs, func(o models.Observation) bool { return o.IsTrade() })
}

// Observations returns all observations inside the window.
func (s *Session) Observations(w Window) []models.Observation {
	return w.filter(s.obs, func(o models.Observation) bool { return true })
}
