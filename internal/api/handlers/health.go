package handlers

import (
	"net/http"
	"time"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/pkg/logger"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg       config.Config
	store     *services.SessionStore
	cache     *cache.RedisCache
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(cfg config.Config, store *services.SessionStore, c *cache.RedisCache, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		store:     store,
		cache:     c,
		logger:    log.WithComponent("health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string            `json:"status"`
	Service        string            `json:"service"`
	Version        string            `json:"version"`
	Uptime         string            `json:"uptime"`
	Timestamp      string            `json:"timestamp"`
	ActiveSessions int               `json:"active_sessions"`
	Checks         map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Service:        h.cfg.App.Name,
		Version:        h.cfg.App.Version,
		Uptime:         time.Since(h.startTime).String(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ActiveSessions: h.store.Count(),
	})
}

// Ready handles GET /ready - checks optional dependencies. The core runs
// entirely in memory, so a missing backend degrades rather than fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := http.StatusOK
	overallStatus := "ready"

	if h.cache != nil {
		if err := h.cache.Client().Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	writeJSON(w, status, HealthResponse{
		Status:         overallStatus,
		Service:        h.cfg.App.Name,
		Version:        h.cfg.App.Version,
		Uptime:         time.Since(h.startTime).String(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ActiveSessions: h.store.Count(),
		Checks:         checks,
	})
}
