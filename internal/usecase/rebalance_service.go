package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"SlipScope/internal/domain/models"
	domrepo "SlipScope/internal/domain/repository"
	domsvc "SlipScope/internal/domain/service"
	"SlipScope/internal/services/rebalance"
	"SlipScope/pkg/cache"
	applogger "SlipScope/pkg/logger"
	"SlipScope/pkg/queue"
)

// ErrJobNotFound is returned when an async rebalance job id is unknown
// or its result has expired.
var ErrJobNotFound = errors.New("rebalance job not found")

const rebalanceJobType = "rebalance.solve"

// JobStatus is the lifecycle state of an async rebalance job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// RebalanceJobResult is the cached outcome of an async solve.
type RebalanceJobResult struct {
	JobID    string                    `json:"job_id"`
	Status   JobStatus                 `json:"status"`
	Solution *models.RebalanceSolution `json:"solution,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

type rebalanceJobPayload struct {
	JobID   string                 `json:"job_id"`
	Request models.RebalanceRequest `json:"request"`
}

// RebalanceService solves rebalance requests, either inline or through
// the Redis-backed job queue for large portfolios.
type RebalanceService struct {
	solver       domsvc.LinearSolver
	defaultCosts []models.AssetCost
	tolerance    float64
	metrics      domrepo.Metrics
	queue        queue.QueueService
	cache        cache.Service
	resultTTL    time.Duration
	logger       *applogger.Logger
}

// RebalanceServiceOption configures RebalanceService.
type RebalanceServiceOption func(*RebalanceService)

// WithDefaultCosts sets the cost model applied when a request carries none.
func WithDefaultCosts(costs []models.AssetCost) RebalanceServiceOption {
	return func(s *RebalanceService) { s.defaultCosts = costs }
}

// WithSolveTolerance sets the trade-vector zeroing tolerance.
func WithSolveTolerance(tol float64) RebalanceServiceOption {
	return func(s *RebalanceService) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithRebalanceMetrics attaches a metrics recorder.
func WithRebalanceMetrics(m domrepo.Metrics) RebalanceServiceOption {
	return func(s *RebalanceService) { s.metrics = m }
}

// WithJobQueue enables async solves through the queue, with results
// held in the cache for ttl.
func WithJobQueue(q queue.QueueService, c cache.Service, ttl time.Duration) RebalanceServiceOption {
	return func(s *RebalanceService) {
		s.queue = q
		s.cache = c
		s.resultTTL = ttl
	}
}

func NewRebalanceService(solver domsvc.LinearSolver, logger *applogger.Logger, opts ...RebalanceServiceOption) *RebalanceService {
	s := &RebalanceService{solver: solver, tolerance: 1e-9, resultTTL: time.Hour, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs one rebalance inline and returns the solution.
func (s *RebalanceService) Solve(ctx context.Context, req *models.RebalanceRequest) (*models.RebalanceSolution, error) {
	costs := req.Costs
	if len(costs) == 0 {
		costs = s.defaultCosts
	}
	r := rebalance.New(s.solver,
		rebalance.WithCosts(costs),
		rebalance.WithTolerance(s.tolerance),
		rebalance.WithMetrics(s.metrics),
	)
	return r.Rebalance(ctx, req.PortfolioState())
}

// Enqueue submits a rebalance for async solving and returns the job id.
func (s *RebalanceService) Enqueue(ctx context.Context, req *models.RebalanceRequest) (string, error) {
	if s.queue == nil || s.cache == nil {
		return "", errors.New("async rebalance is not enabled")
	}
	jobID := uuid.NewString()
	pending := RebalanceJobResult{JobID: jobID, Status: JobPending}
	if err := s.cache.Set(ctx, resultKey(jobID), pending, s.resultTTL); err != nil {
		return "", fmt.Errorf("store pending job: %w", err)
	}
	payload := rebalanceJobPayload{JobID: jobID, Request: *req}
	if err := s.queue.PublishMessage(ctx, rebalanceJobType, payload); err != nil {
		return "", fmt.Errorf("enqueue rebalance: %w", err)
	}
	return jobID, nil
}

// Result looks up the outcome of an async solve.
func (s *RebalanceService) Result(ctx context.Context, jobID string) (*RebalanceJobResult, error) {
	if s.cache == nil {
		return nil, errors.New("async rebalance is not enabled")
	}
	var res RebalanceJobResult
	if err := s.cache.Get(ctx, resultKey(jobID), &res); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &res, nil
}

func resultKey(jobID string) string {
	return cache.GenerateKey("rebalance:result", jobID)
}

// RebalanceJob is the queue worker for async solves. It records the
// solution (or the failure) in the cache under the job id.
type RebalanceJob struct {
	svc *RebalanceService
}

func NewRebalanceJob(svc *RebalanceService) *RebalanceJob {
	return &RebalanceJob{svc: svc}
}

func (j *RebalanceJob) Name() string { return "rebalance-solver" }

func (j *RebalanceJob) Type() string { return rebalanceJobType }

func (j *RebalanceJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[rebalanceJobPayload](payload)
	if err != nil {
		return fmt.Errorf("decode rebalance payload: %w", err)
	}

	res := RebalanceJobResult{JobID: p.JobID}
	sol, err := j.svc.Solve(ctx, &p.Request)
	if err != nil {
		// Infeasible and invalid inputs are terminal outcomes, not
		// transient failures; report them instead of retrying.
		res.Status = JobFailed
		res.Error = err.Error()
		if !errors.Is(err, domsvc.ErrInfeasible) &&
			!errors.Is(err, domsvc.ErrUnbounded) &&
			!errors.Is(err, models.ErrInvalidInput) {
			j.svc.logger.Error("async rebalance solve failed",
				applogger.String("job_id", p.JobID), applogger.Error(err))
		}
	} else {
		res.Status = JobDone
		res.Solution = sol
	}

	if err := j.svc.cache.Set(ctx, resultKey(p.JobID), res, j.svc.resultTTL); err != nil {
		return fmt.Errorf("store job result: %w", err)
	}
	return nil
}
