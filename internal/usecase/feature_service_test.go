package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SlipScope/internal/domain/models"
	"SlipScope/pkg/cache"
	applogger "SlipScope/pkg/logger"
)

type stubStorage struct {
	obs   []*models.Observation
	calls int
}

func (s *stubStorage) Init(ctx context.Context) error { return nil }
func (s *stubStorage) Store(ctx context.Context, o *models.Observation) error {
	s.obs = append(s.obs, o)
	return nil
}
func (s *stubStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	s.obs = append(s.obs, obs...)
	return nil
}
func (s *stubStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Observation, error) {
	return s.obs, nil
}
func (s *stubStorage) Latest(ctx context.Context, symbol string, n int) ([]*models.Observation, error) {
	s.calls++
	if len(s.obs) > n {
		return s.obs[len(s.obs)-n:], nil
	}
	return s.obs, nil
}
func (s *stubStorage) Health(ctx context.Context) error { return nil }
func (s *stubStorage) Close() error                     { return nil }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func marketObservations(base time.Time) []*models.Observation {
	q1 := models.NewQuote("AAPL", base, 99, 10, 101, 10)
	t1 := models.NewTrade("AAPL", base.Add(time.Second), 100, 5)
	q2 := models.NewQuote("AAPL", base.Add(2*time.Second), 99.5, 10, 100.5, 10)
	t2 := models.NewTrade("AAPL", base.Add(3*time.Second), 100.5, 3)
	return []*models.Observation{&q1, &t1, &q2, &t2}
}

func TestFeatureServiceComputesSnapshot(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	store := &stubStorage{obs: marketObservations(base)}
	svc := NewFeatureService(store, testLogger(t))

	snap, err := svc.Features(context.Background(), &models.FeaturesRequest{Symbol: "AAPL", N: 100, Lookback: 1})
	if err != nil {
		t.Fatalf("features: %v", err)
	}
	if len(snap) != len(models.AllFeatures()) {
		t.Fatalf("expected %d features, got %d", len(models.AllFeatures()), len(snap))
	}

	vwap := snap[models.FeatureVWAP]
	if !vwap.Defined {
		t.Fatalf("expected vwap defined")
	}
	want := (100*5 + 100.5*3) / 8.0
	if diff := vwap.Value - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("vwap = %v, want %v", vwap.Value, want)
	}
	if snap[models.FeatureArrivalCost].Defined {
		t.Fatalf("expected arrival cost undefined without order context")
	}

	withOrder, err := svc.Features(context.Background(), &models.FeaturesRequest{
		Symbol: "AAPL", N: 100, Lookback: 1,
		PlacementPrice: 100, FillPrice: 100.4,
	})
	if err != nil {
		t.Fatalf("features with order: %v", err)
	}
	ac := withOrder[models.FeatureArrivalCost]
	if !ac.Defined {
		t.Fatalf("expected arrival cost defined with order context")
	}
	if diff := ac.Value - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("arrival cost = %v, want 0.4", ac.Value)
	}
}

func TestFeatureServiceUsesCache(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	store := &stubStorage{obs: marketObservations(base)}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	svc := NewFeatureService(store, testLogger(t), WithFeatureCache(mc, time.Minute))

	req := &models.FeaturesRequest{Symbol: "AAPL", N: 100, Lookback: 1}
	first, err := svc.Features(context.Background(), req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.Features(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected one storage read, got %d", store.calls)
	}
	if first[models.FeatureVWAP].Value != second[models.FeatureVWAP].Value {
		t.Fatalf("cached snapshot differs")
	}
}

func TestFeatureServiceDefaultLookback(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	store := &stubStorage{obs: marketObservations(base)}
	svc := NewFeatureService(store, testLogger(t), WithFeatureLookback(2))

	// two trades in history; the configured lookback of 2 needs three
	snap, err := svc.Features(context.Background(), &models.FeaturesRequest{Symbol: "AAPL", N: 100})
	if err != nil {
		t.Fatalf("features: %v", err)
	}
	if snap[models.FeatureMomentum].Defined {
		t.Fatalf("expected momentum undefined at configured lookback")
	}

	// an explicit request lookback still wins over the configured default
	snap, err = svc.Features(context.Background(), &models.FeaturesRequest{Symbol: "AAPL", N: 100, Lookback: 1})
	if err != nil {
		t.Fatalf("features with explicit lookback: %v", err)
	}
	if !snap[models.FeatureMomentum].Defined {
		t.Fatalf("expected momentum defined at lookback 1")
	}
}

func TestFeatureServiceEmptyHistory(t *testing.T) {
	store := &stubStorage{}
	svc := NewFeatureService(store, testLogger(t))

	_, err := svc.Features(context.Background(), &models.FeaturesRequest{Symbol: "MSFT", N: 100, Lookback: 1})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestObservationsRangeParsing(t *testing.T) {
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	store := &stubStorage{obs: marketObservations(base)}
	svc := NewFeatureService(store, testLogger(t))

	rows, err := svc.Observations(context.Background(), &models.ObservationsRequest{
		Symbol: "AAPL",
		From:   base.Format(time.RFC3339),
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("observations: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	_, err = svc.Observations(context.Background(), &models.ObservationsRequest{Symbol: "AAPL", From: "not-a-time"})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bad from, got %v", err)
	}
}
