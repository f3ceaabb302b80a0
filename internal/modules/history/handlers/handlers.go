// Package handlers provides HTTP handlers for mitigation run history.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/qforge/mitigate/internal/modules/history"
)

// Handler handles history HTTP requests
type Handler struct {
	repo         *history.Repository
	defaultLimit int
	log          zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(repo *history.Repository, defaultLimit int, log zerolog.Logger) *Handler {
	return &Handler{
		repo:         repo,
		defaultLimit: defaultLimit,
		log:          log.With().Str("handler", "history").Logger(),
	}
}

type recordJSON struct {
	ID         string  `json:"id"`
	Technique  string  `json:"technique"`
	Circuit    string  `json:"circuit"`
	Method     string  `json:"method"`
	Estimate   float64 `json:"estimate"`
	StdError   float64 `json:"std_error"`
	NumSamples int     `json:"num_samples"`
	CreatedAt  string  `json:"created_at"`
}

// HandleList handles GET /api/history
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.repo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list mitigation results")
		http.Error(w, "Failed to list mitigation results", http.StatusInternalServerError)
		return
	}

	results := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		results = append(results, toJSON(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// HandleGet handles GET /api/history/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.repo.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to load mitigation result")
		http.Error(w, "Failed to load mitigation result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toJSON(rec)); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func toJSON(rec history.Record) recordJSON {
	return recordJSON{
		ID:         rec.ID,
		Technique:  rec.Technique,
		Circuit:    rec.Circuit,
		Method:     rec.Method,
		Estimate:   rec.Estimate,
		StdError:   rec.StdError,
		NumSamples: rec.NumSamples,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
