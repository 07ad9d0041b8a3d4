package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "SlipScope/internal/domain/models"
	domsvc "SlipScope/internal/domain/service"
	"SlipScope/internal/service/metrics"
	"SlipScope/internal/service/ratelimit"
	"SlipScope/internal/usecase"
	xhttp "SlipScope/pkg/http"
	xlogger "SlipScope/pkg/logger"
)

// CostsEchoHandler exposes the cost analytics API over Echo.
type CostsEchoHandler struct {
	logger    *xlogger.Logger
	feats     *usecase.FeatureService
	rebalance *usecase.RebalanceService
	rl        *ratelimit.Limiter
}

func NewCostsEchoHandler(logger *xlogger.Logger, feats *usecase.FeatureService, reb *usecase.RebalanceService) *CostsEchoHandler {
	metrics.Register()
	return &CostsEchoHandler{logger: logger, feats: feats, rebalance: reb, rl: ratelimit.New()}
}

func (h *CostsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/features", h.Features)
	g.GET("/observations", h.Observations)
	g.POST("/rebalance", h.Rebalance)
	g.POST("/rebalance/jobs", h.EnqueueRebalance)
	g.GET("/rebalance/jobs/:id", h.RebalanceResult)
}

func (h *CostsEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CostsEchoHandler) Features(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.APILatency.WithLabelValues("features").Observe(time.Since(start).Seconds())
	}()

	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow("features:"+req.Symbol, 20, 10) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}

	res, err := h.feats.Features(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("features").Inc()
		h.logger.Error("features usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, res)
}

func (h *CostsEchoHandler) Observations(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.APILatency.WithLabelValues("observations").Observe(time.Since(start).Seconds())
	}()

	req := &models.ObservationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.feats.Observations(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("observations").Inc()
		h.logger.Error("observations usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *CostsEchoHandler) Rebalance(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.APILatency.WithLabelValues("rebalance").Observe(time.Since(start).Seconds())
	}()

	req := &models.RebalanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sol, err := h.rebalance.Solve(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("rebalance").Inc()
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, sol)
}

func (h *CostsEchoHandler) EnqueueRebalance(c echo.Context) error {
	req := &models.RebalanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	jobID, err := h.rebalance.Enqueue(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("rebalance_enqueue").Inc()
		h.logger.Error("rebalance enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"job_id": jobID, "status": string(usecase.JobPending)})
}

func (h *CostsEchoHandler) RebalanceResult(c echo.Context) error {
	res, err := h.rebalance.Result(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrJobNotFound) {
			return xhttp.NotFoundResponse(c, "job not found")
		}
		metrics.APIErrors.WithLabelValues("rebalance_result").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// domainError maps domain sentinel errors to structured API errors.
// An infeasible or unbounded program is a client-visible outcome, not
// a server fault.
func (h *CostsEchoHandler) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("invalid_input", "", err.Error(), http.StatusBadRequest).WithError(err))
	case errors.Is(err, domsvc.ErrInfeasible):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("infeasible", "min_return", "no rebalance satisfies the return floor", http.StatusUnprocessableEntity).WithError(err))
	case errors.Is(err, domsvc.ErrUnbounded):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("unbounded", "", "objective is unbounded below", http.StatusUnprocessableEntity).WithError(err))
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}
