package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports the health of one infrastructure dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
}

// NewHealthHandler constructs the handler.  checkers are consulted by the
// readiness probe only; liveness never touches dependencies.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers, version: version, startAt: time.Now()}
}

// RegisterRoutes wires the probes at the engine root, outside auth.
func (h *HealthHandler) RegisterRoutes(e *gin.Engine) {
	e.GET("/healthz", h.Liveness)
	e.GET("/readyz", h.Readiness)
}

// ComponentCheck is one dependency's probe outcome.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startAt).Round(time.Second).String(),
	})
}

// Readiness handles GET /readyz: every dependency must answer within the
// probe budget or the service reports not-ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]ComponentCheck, len(h.checkers))
	ready := true
	for _, checker := range h.checkers {
		start := time.Now()
		err := checker.Check(ctx)
		check := ComponentCheck{
			Status:  "ok",
			Latency: time.Since(start).Round(time.Millisecond).String(),
		}
		if err != nil {
			check.Status = "unavailable"
			check.Error = err.Error()
			ready = false
		}
		components[checker.Name()] = check
	}

	status := http.StatusOK
	overall := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}
