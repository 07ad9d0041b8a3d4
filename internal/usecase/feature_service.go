package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SlipScope/internal/domain/models"
	domrepo "SlipScope/internal/domain/repository"
	"SlipScope/internal/services/features"
	"SlipScope/pkg/cache"
	applogger "SlipScope/pkg/logger"
	"SlipScope/pkg/util"
)

// FeatureService answers feature queries from stored observations.
// Snapshots are cached for a short TTL since the trailing history for
// a symbol only changes when new observations arrive.
type FeatureService struct {
	store    domrepo.Storage
	metrics  domrepo.Metrics
	cache    cache.Service
	ttl      time.Duration
	lookback int
	logger   *applogger.Logger
}

// FeatureServiceOption configures FeatureService.
type FeatureServiceOption func(*FeatureService)

// WithFeatureCache enables snapshot caching with the given TTL.
func WithFeatureCache(c cache.Service, ttl time.Duration) FeatureServiceOption {
	return func(s *FeatureService) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithFeatureMetrics attaches a metrics recorder.
func WithFeatureMetrics(m domrepo.Metrics) FeatureServiceOption {
	return func(s *FeatureService) { s.metrics = m }
}

// WithFeatureLookback sets the momentum lookback used when a request
// leaves it unset.
func WithFeatureLookback(k int) FeatureServiceOption {
	return func(s *FeatureService) {
		if k > 0 {
			s.lookback = k
		}
	}
}

func NewFeatureService(store domrepo.Storage, logger *applogger.Logger, opts ...FeatureServiceOption) *FeatureService {
	s := &FeatureService{store: store, lookback: 1, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Features loads the latest n observations for the symbol, replays them
// into a session and computes all feature snapshots over the window.
func (s *FeatureService) Features(ctx context.Context, req *models.FeaturesRequest) (map[models.FeatureName]models.FeatureSnapshot, error) {
	w := features.ParseWindow(req.Window)
	lookback := req.Lookback
	if lookback <= 0 {
		lookback = s.lookback
	}
	key := cache.GenerateKeyWithParams("features", req.Symbol, req.N, w.String(), lookback,
		req.PlacementPrice, req.FillPrice)

	if s.cache != nil {
		var cached map[models.FeatureName]models.FeatureSnapshot
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("feature cache read failed", applogger.Error(err))
		}
	}

	rows, err := s.store.Latest(ctx, req.Symbol, req.N)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no observations for %s", models.ErrInvalidInput, req.Symbol)
	}

	obs := make([]models.Observation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, *r)
	}
	session, err := features.FromObservations(req.Symbol, obs)
	if err != nil {
		return nil, fmt.Errorf("replay observations: %w", err)
	}

	ex := features.NewExtractor(
		features.WithLookback(lookback),
		features.WithMetrics(s.metrics),
	)
	snap := ex.Snapshot(session, w, req.Order())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snap, s.ttl); err != nil {
			s.logger.Warn("feature cache write failed", applogger.Error(err))
		}
	}
	return snap, nil
}

// Observations returns raw stored observations for a symbol and range.
// The range is capped at seven days ending at to (now when omitted).
func (s *FeatureService) Observations(ctx context.Context, req *models.ObservationsRequest) ([]*models.Observation, error) {
	var from, to time.Time
	if req.From != "" {
		t, ok := util.ParseTime(req.From)
		if !ok {
			return nil, fmt.Errorf("%w: bad from: %q", models.ErrInvalidInput, req.From)
		}
		from = t
	}
	if req.To != "" {
		t, ok := util.ParseTime(req.To)
		if !ok {
			return nil, fmt.Errorf("%w: bad to: %q", models.ErrInvalidInput, req.To)
		}
		to = t
	}
	from, to = util.ClampRange(from, to, 7*24*time.Hour)
	return s.store.Query(ctx, req.Symbol, from, to, req.Limit)
}
