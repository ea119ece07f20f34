package handlers

import (
	"net/http"

	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/pkg/logger"
)

// StatsHandler serves service-level counters
type StatsHandler struct {
	store  *services.SessionStore
	cache  *cache.RedisCache // optional
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(store *services.SessionStore, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		store:  store,
		cache:  c,
		logger: log.WithComponent("stats-handler"),
	}
}

// Get handles GET /api/v1/honeypot/stats. Cumulative counters require
// Redis; in a pure in-memory run only the live session figures are served.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"active_sessions": h.store.Count(),
	}

	if h.cache != nil {
		ctx := r.Context()
		stats["messages_processed"] = h.cache.GetStat(ctx, cache.KeyStatMessages)
		stats["scams_detected"] = h.cache.GetStat(ctx, cache.KeyStatScams)
		stats["reports_dispatched"] = h.cache.GetStat(ctx, cache.KeyStatReports)
		stats["sessions_created"] = h.cache.GetStat(ctx, cache.KeyStatSessions)
		stats["intel_items"] = h.cache.GetStat(ctx, cache.KeyStatIntel)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"stats":  stats,
	})
}
