package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/njoroofficial/dev-events/internal/delivery/http/helpers"
)

// healthCheckTimeout bounds the combined time spent pinging dependencies.
const healthCheckTimeout = 2 * time.Second

// HealthCheck names one dependency and how to ping it.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthResponse is the data payload for GET /healthz. Checks maps each
// dependency to "ok" or its error text.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthSuccessResponse is the response envelope for GET /healthz (200/503).
type HealthSuccessResponse struct {
	Data  HealthResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type HealthController struct {
	Logger *slog.Logger
	Checks []HealthCheck
}

func NewHealthController(logger *slog.Logger, checks []HealthCheck) *HealthController {
	return &HealthController{
		Logger: logger,
		Checks: checks,
	}
}

// Healthz godoc
// @Summary Liveness and dependency health
// @Description Pings each backing dependency (Postgres, MongoDB, Redis when configured) and reports per-dependency status. Returns 503 when any ping fails.
// @Tags health
// @Produce json
// @Success 200 {object} controllers.HealthSuccessResponse "status ok, every check passed"
// @Failure 503 {object} controllers.HealthSuccessResponse "status degraded, failing checks carry their error"
// @Router /healthz [get]
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(c.Checks))}
	status := http.StatusOK
	for _, check := range c.Checks {
		if err := check.Ping(ctx); err != nil {
			c.Logger.WarnContext(r.Context(), "health check failed", "dependency", check.Name, "err", err)
			resp.Checks[check.Name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "ok"
	}
	helpers.WriteJSONSuccess(w, status, resp)
}
