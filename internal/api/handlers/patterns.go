package handlers

import (
	"net/http"

	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/pkg/logger"
)

// PatternsHandler serves the detection pattern reference data
type PatternsHandler struct {
	patterns *services.PatternDB
	logger   *logger.Logger
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(patterns *services.PatternDB, log *logger.Logger) *PatternsHandler {
	return &PatternsHandler{
		patterns: patterns,
		logger:   log.WithComponent("patterns-handler"),
	}
}

// List handles GET /api/v1/honeypot/patterns - returns the category
// pattern sets used for intent scoring
func (h *PatternsHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := make(map[string][]string, len(services.Categories))
	for _, cat := range services.Categories {
		categories[string(cat)] = h.patterns.Sources(cat)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"categories": categories,
	})
}
