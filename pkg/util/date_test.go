package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestClampRange(t *testing.T) {
    to := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

    from, got := ClampRange(time.Time{}, to, time.Hour)
    if !got.Equal(to) {
        t.Fatalf("to changed: %v", got)
    }
    if !from.Equal(to.Add(-time.Hour)) {
        t.Fatalf("expected from pulled to span start, got %v", from)
    }

    wide := to.Add(-48 * time.Hour)
    from, _ = ClampRange(wide, to, time.Hour)
    if !from.Equal(to.Add(-time.Hour)) {
        t.Fatalf("expected span capped, got %v", from)
    }

    inRange := to.Add(-30 * time.Minute)
    from, _ = ClampRange(inRange, to, time.Hour)
    if !from.Equal(inRange) {
        t.Fatalf("expected from kept, got %v", from)
    }
}