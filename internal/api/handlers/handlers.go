package handlers

import (
	"encoding/json"
	"net/http"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/pkg/logger"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	Honeypot *HoneypotHandler
	Sessions *SessionsHandler
	Patterns *PatternsHandler
	Stats    *StatsHandler
	Health   *HealthHandler
}

// NewHandlers creates all handlers
func NewHandlers(cfg config.Config, engine *services.HoneypotEngine, patterns *services.PatternDB, c *cache.RedisCache, log *logger.Logger) *Handlers {
	return &Handlers{
		Honeypot: NewHoneypotHandler(engine, log),
		Sessions: NewSessionsHandler(engine.Store(), log),
		Patterns: NewPatternsHandler(patterns, log),
		Stats:    NewStatsHandler(engine.Store(), c, log),
		Health:   NewHealthHandler(cfg, engine.Store(), c, log),
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes the standard error envelope
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
