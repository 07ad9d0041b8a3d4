package features

import (
	"errors"
	"testing"
	"time"

	"SlipScope/internal/domain/models"
)

func TestSessionAppendValidates(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := NewSession("BTCUSDT")

	if err := s.Append(models.NewTrade("BTCUSDT", base, 100, 1)); err != nil {
		t.Fatalf("valid trade rejected: %v", err)
	}
	if err := s.Append(models.NewTrade("BTCUSDT", base, -5, 1)); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative price, got %v", err)
	}
	if err := s.Append(models.NewTrade("BTCUSDT", base, 100, -1)); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative volume, got %v", err)
	}
	if err := s.Append(models.NewTrade("BTCUSDT", base.Add(-time.Second), 100, 1)); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input for non-monotonic timestamp, got %v", err)
	}
	if err := s.Append(models.NewQuote("BTCUSDT", base, 99, -1, 101, 1)); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative quote size, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("rejected observations must not be recorded, len=%d", s.Len())
	}
}

func TestSessionSeqBreaksTimestampTies(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := NewSession("X")
	_ = s.Append(models.NewTrade("X", base, 100, 1))
	_ = s.Append(models.NewTrade("X", base, 101, 1)) // same timestamp
	last, ok := s.LastTrade()
	if !ok || last.Price != 101 || last.Seq != 1 {
		t.Fatalf("insertion order must win ties, got price=%v seq=%d", last.Price, last.Seq)
	}
}

func TestWindowByCount(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := NewSession("X")
	for i := 0; i < 5; i++ {
		_ = s.Append(models.NewTrade("X", base.Add(time.Duration(i)*time.Second), 100+float64(i), 1))
	}
	got := s.Trades(ByCount(3))
	if len(got) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(got))
	}
	if got[0].Price != 102 || got[2].Price != 104 {
		t.Fatalf("unexpected window contents %v..%v", got[0].Price, got[2].Price)
	}
}

func TestWindowBySpan(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := NewSession("X")
	for i := 0; i < 5; i++ {
		_ = s.Append(models.NewTrade("X", base.Add(time.Duration(i)*time.Second), 100+float64(i), 1))
	}
	// window [t4-2s, t4]: includes t2, t3, t4 (start boundary inclusive)
	got := s.Trades(BySpan(2 * time.Second))
	if len(got) != 3 {
		t.Fatalf("expected 3 trades in span, got %d", len(got))
	}
	if got[0].Price != 102 {
		t.Fatalf("window start must be inclusive, first=%v", got[0].Price)
	}
}

func TestWindowSkipsQuotes(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := NewSession("X")
	_ = s.Append(models.NewTrade("X", base, 100, 1))
	_ = s.Append(models.NewQuote("X", base.Add(time.Second), 99, 10, 101, 10))
	_ = s.Append(models.NewTrade("X", base.Add(2*time.Second), 102, 1))
	if got := s.Trades(Window{}); len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
}

func TestParseWindow(t *testing.T) {
	if w := ParseWindow("120"); w.Count != 120 || w.Span != 0 {
		t.Fatalf("unexpected count window %+v", w)
	}
	if w := ParseWindow("5m"); w.Span != 5*time.Minute {
		t.Fatalf("unexpected span window %+v", w)
	}
	if w := ParseWindow(""); !w.IsZero() {
		t.Fatalf("empty spec should be zero window")
	}
	if w := ParseWindow("bogus"); !w.IsZero() {
		t.Fatalf("invalid spec should be zero window")
	}
}
