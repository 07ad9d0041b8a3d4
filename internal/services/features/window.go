package features

import (
	"strconv"
	"time"

	"SlipScope/internal/domain/models"
)

// Window selects trailing observations either by count or by time span.
// The window is anchored at the most recent qualifying observation and
// excludes anything before its start. A zero Window selects everything.
type Window struct {
	Count int
	Span  time.Duration
}

// IsZero reports whether the window selects the whole session.
func (w Window) IsZero() bool { return w.Count <= 0 && w.Span <= 0 }

// ByCount returns a trailing-count window.
func ByCount(n int) Window { return Window{Count: n} }

// BySpan returns a time-span window.
func BySpan(d time.Duration) Window { return Window{Span: d} }

// ParseWindow converts a raw string to a window: a bare integer is a
// trailing count, a duration string ("5m", "30s") is a span. Empty or
// invalid input yields the zero window.
func ParseWindow(s string) Window {
	if s == "" {
		return Window{}
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return ByCount(n)
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return BySpan(d)
	}
	return Window{}
}

// String renders the window spec for cache keys and logs.
func (w Window) String() string {
	switch {
	case w.Count > 0:
		return strconv.Itoa(w.Count)
	case w.Span > 0:
		return w.Span.String()
	default:
		return "all"
	}
}

// filter returns the qualifying observations inside the window,
// preserving chronological order.
func (w Window) filter(obs []models.Observation, match func(models.Observation) bool) []models.Observation {
	var out []models.Observation
	for _, o := range obs {
		if match(o) {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if w.Span > 0 {
		start := out[len(out)-1].Timestamp.Add(-w.Span)
		i := 0
		for i < len(out) && out[i].Timestamp.Before(start) {
			i++
		}
		out = out[i:]
	}
	if w.Count > 0 && len(out) > w.Count {
		out = out[len(out)-w.Count:]
	}
	return out
}
