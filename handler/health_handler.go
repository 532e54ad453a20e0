package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"saveai-api/logger"

	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint. It is set at build time with
// -ldflags "-X saveai-api/handler.Version=<sha>".
var Version = "dev"

// HealthCheckFunc reports whether a dependency is reachable.
type HealthCheckFunc func(ctx context.Context) error

// HealthCheck names a dependency check. A failing optional dependency degrades
// the reported status but keeps the endpoint at 200.
type HealthCheck struct {
	Name     string
	Check    HealthCheckFunc
	Optional bool
}

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  Reports liveness together with the reachability of the database and cache. An unreachable cache is reported as degraded; an unreachable database fails the check.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().UTC(),
	}
	code := http.StatusOK

	if h != nil && len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp.Components = make(map[string]string, len(h.checks))
		for _, c := range h.checks {
			err := c.Check(ctx)
			if err == nil {
				resp.Components[c.Name] = "ok"
				continue
			}
			logger.Log.WithFields(logrus.Fields{
				"component": c.Name,
				"optional":  c.Optional,
			}).WithError(err).Warn("Health check failed")
			resp.Components[c.Name] = "unavailable"
			if c.Optional {
				if code == http.StatusOK {
					resp.Status = "degraded"
				}
				continue
			}
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
