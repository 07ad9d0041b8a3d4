package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"SlipScope/internal/domain/models"
	"SlipScope/internal/service/solver"
	"SlipScope/pkg/cache"
	"SlipScope/pkg/queue"
)

// inlineQueue runs the registered job synchronously, mimicking a worker
// after a JSON round-trip through Redis.
type inlineQueue struct {
	job queue.Job
}

func (q *inlineQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	if q.job == nil || q.job.Type() != msgType {
		return errors.New("no job for type " + msgType)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	return q.job.Handle(ctx, m)
}

func newAsyncService(t *testing.T) (*RebalanceService, *cache.MemoryCache) {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	q := &inlineQueue{}
	svc := NewRebalanceService(solver.NewSimplex(), testLogger(t),
		WithJobQueue(q, mc, time.Minute))
	q.job = NewRebalanceJob(svc)
	return svc, mc
}

func TestRebalanceServiceSolve(t *testing.T) {
	svc := NewRebalanceService(solver.NewSimplex(), testLogger(t))

	sol, err := svc.Solve(context.Background(), &models.RebalanceRequest{
		Holdings:        []float64{50, 50},
		ExpectedReturns: []float64{2.0, 1.0},
		MinReturn:       1.8,
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	sum := 0.0
	for _, h := range sol.Holdings {
		sum += h
	}
	if diff := sum - 100; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("value not conserved: %v", sum)
	}
	if sol.AchievedReturn < 1.8-1e-9 {
		t.Fatalf("return floor missed: %v", sol.AchievedReturn)
	}
}

func TestRebalanceServiceAsyncRoundTrip(t *testing.T) {
	svc, _ := newAsyncService(t)

	jobID, err := svc.Enqueue(context.Background(), &models.RebalanceRequest{
		Holdings:        []float64{50, 50},
		ExpectedReturns: []float64{2.0, 1.0},
		MinReturn:       1.8,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	res, err := svc.Result(context.Background(), jobID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Status != JobDone {
		t.Fatalf("status = %s, err = %s", res.Status, res.Error)
	}
	if res.Solution == nil || len(res.Solution.Trades) != 2 {
		t.Fatalf("missing solution in result")
	}
}

func TestRebalanceServiceAsyncInfeasible(t *testing.T) {
	svc, _ := newAsyncService(t)

	jobID, err := svc.Enqueue(context.Background(), &models.RebalanceRequest{
		Holdings:        []float64{50, 50},
		ExpectedReturns: []float64{1.2, 1.0},
		MinReturn:       2.0,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	res, err := svc.Result(context.Background(), jobID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Status != JobFailed || res.Error == "" {
		t.Fatalf("expected failed result, got %s %q", res.Status, res.Error)
	}
}

func TestRebalanceServiceUnknownJob(t *testing.T) {
	svc, _ := newAsyncService(t)
	if _, err := svc.Result(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
