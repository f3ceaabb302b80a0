// Package handlers provides HTTP handlers for zero-noise extrapolation.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/qforge/mitigate/internal/modules/history"
	"github.com/qforge/mitigate/internal/modules/zne"
)

// Handler handles ZNE HTTP requests
type Handler struct {
	historyRepo *history.Repository
	log         zerolog.Logger
}

// NewHandler creates a new ZNE handler
func NewHandler(historyRepo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		historyRepo: historyRepo,
		log:         log.With().Str("handler", "zne").Logger(),
	}
}

type extrapolateRequest struct {
	Method            string    `json:"method"`
	ScaleFactors      []float64 `json:"scale_factors"`
	ExpectationValues []float64 `json:"expectation_values"`
	Order             int       `json:"order"`
	Asymptote         *float64  `json:"asymptote"`
	AvoidLog          bool      `json:"avoid_log"`
}

type extrapolateResponse struct {
	Method         string    `json:"method"`
	ZeroNoiseValue float64   `json:"zero_noise_value"`
	OptParams      []float64 `json:"opt_params"`
	Warnings       []string  `json:"warnings"`
	RecordID       string    `json:"record_id,omitempty"`
}

// extrapolationMethods describes the supported models for GET /api/zne/methods.
var extrapolationMethods = []map[string]interface{}{
	{"name": "richardson", "description": "Polynomial interpolation of order len(scale_factors)-1", "parameters": []string{}},
	{"name": "linear", "description": "Straight-line fit", "parameters": []string{}},
	{"name": "poly", "description": "Polynomial fit of fixed order", "parameters": []string{"order"}},
	{"name": "exp", "description": "Exponential ansatz a + b*exp(-c*x)", "parameters": []string{"asymptote", "avoid_log"}},
	{"name": "polyexp", "description": "Exponential ansatz with polynomial exponent", "parameters": []string{"order", "asymptote", "avoid_log"}},
}

// HandleExtrapolate handles POST /api/zne/extrapolate
func (h *Handler) HandleExtrapolate(w http.ResponseWriter, r *http.Request) {
	var req extrapolateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.ScaleFactors) != len(req.ExpectationValues) {
		http.Error(w, "scale_factors and expectation_values must have the same length", http.StatusBadRequest)
		return
	}

	factory, err := h.buildFactory(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	i := 0
	err = factory.RunClassical(func(rec zne.ScaleRecord) (float64, error) {
		val := req.ExpectationValues[i]
		i++
		return val, nil
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to populate factory")
		http.Error(w, "Failed to populate factory", http.StatusInternalServerError)
		return
	}

	zeroNoise, err := factory.Reduce()
	if err != nil {
		h.log.Error().Err(err).Str("method", req.Method).Msg("Extrapolation failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	warnings := make([]string, 0)
	for _, warning := range factory.Warnings() {
		warnings = append(warnings, warning.Error())
	}

	resp := extrapolateResponse{
		Method:         req.Method,
		ZeroNoiseValue: zeroNoise,
		OptParams:      factory.OptParams(),
		Warnings:       warnings,
	}

	if h.historyRepo != nil {
		id, err := h.historyRepo.Save(history.Record{
			Technique:  "zne",
			Method:     req.Method,
			Estimate:   zeroNoise,
			NumSamples: len(req.ScaleFactors),
		})
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to store extrapolation result")
		} else {
			resp.RecordID = id
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// HandleGetMethods handles GET /api/zne/methods
func (h *Handler) HandleGetMethods(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"methods": extrapolationMethods,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) buildFactory(req extrapolateRequest) (zne.Factory, error) {
	opts := []zne.FactoryOption{zne.WithLogger(h.log)}
	switch req.Method {
	case "linear":
		return zne.NewLinearFactory(req.ScaleFactors, opts...)
	case "poly":
		return zne.NewPolyFactory(req.ScaleFactors, req.Order, opts...)
	case "exp":
		return zne.NewExpFactory(req.ScaleFactors, req.Asymptote, req.AvoidLog, opts...)
	case "polyexp":
		return zne.NewPolyExpFactory(req.ScaleFactors, req.Order, req.Asymptote, req.AvoidLog, opts...)
	case "richardson", "":
		return zne.NewRichardsonFactory(req.ScaleFactors, opts...)
	default:
		return nil, fmt.Errorf("unknown extrapolation method: %q", req.Method)
	}
}
