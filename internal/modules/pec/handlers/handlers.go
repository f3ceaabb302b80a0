// Package handlers provides HTTP handlers for probabilistic error
// cancellation sampling diagnostics.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/modules/pec"
)

// Handler handles PEC HTTP requests
type Handler struct {
	maxSamples int
	log        zerolog.Logger
}

// NewHandler creates a new PEC handler. maxSamples caps the per-request
// sample count.
func NewHandler(maxSamples int, log zerolog.Logger) *Handler {
	return &Handler{
		maxSamples: maxSamples,
		log:        log.With().Str("handler", "pec").Logger(),
	}
}

type gateJSON struct {
	Name   string  `json:"name"`
	Qubits []int   `json:"qubits"`
	Param  float64 `json:"param,omitempty"`
}

type circuitJSON struct {
	Gates        []gateJSON `json:"gates"`
	Measurements []int      `json:"measurements,omitempty"`
}

type basisPairJSON struct {
	Circuit circuitJSON `json:"circuit"`
	Coeff   float64     `json:"coeff"`
}

type representationJSON struct {
	Ideal circuitJSON     `json:"ideal"`
	Basis []basisPairJSON `json:"basis"`
	Norm  float64         `json:"norm,omitempty"`
}

type sampleRequest struct {
	Ideal           circuitJSON          `json:"ideal"`
	Representations []representationJSON `json:"representations"`
	NumSamples      int                  `json:"num_samples"`
	Seed            uint64               `json:"seed"`
}

type sampleResponse struct {
	Norm                  float64        `json:"norm"`
	NumSamples            int            `json:"num_samples"`
	SignCounts            map[string]int `json:"sign_counts"`
	NegativeSignFrequency float64        `json:"negative_sign_frequency"`
	SampledCircuits       []string       `json:"sampled_circuits,omitempty"`
}

type representRequest struct {
	Circuit    circuitJSON `json:"circuit"`
	NoiseModel string      `json:"noise_model"` // "depolarizing" or "amplitude_damping"
	Strength   float64     `json:"strength"`
}

// HandleSample handles POST /api/pec/sample
func (h *Handler) HandleSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	numSamples := req.NumSamples
	if numSamples <= 0 {
		numSamples = 1000
	}
	if h.maxSamples > 0 && numSamples > h.maxSamples {
		http.Error(w, fmt.Sprintf("num_samples exceeds the maximum of %d", h.maxSamples), http.StatusBadRequest)
		return
	}

	ideal := circuitFromJSON(req.Ideal)
	reps := make([]*pec.OperationRepresentation, 0, len(req.Representations))
	for i, repJSON := range req.Representations {
		rep, err := representationFromJSON(repJSON)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid representation %d: %v", i, err), http.StatusBadRequest)
			return
		}
		reps = append(reps, rep)
	}

	seed := req.Seed
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)

	signCounts := map[string]int{"+1": 0, "-1": 0}
	var norm float64
	preview := make([]string, 0, 5)
	for i := 0; i < numSamples; i++ {
		sampled, sign, sampleNorm, err := pec.SampleCircuit(ideal, reps, src)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		norm = sampleNorm
		if sign < 0 {
			signCounts["-1"]++
		} else {
			signCounts["+1"]++
		}
		if len(preview) < cap(preview) {
			preview = append(preview, sampled.String())
		}
	}

	resp := sampleResponse{
		Norm:                  norm,
		NumSamples:            numSamples,
		SignCounts:            signCounts,
		NegativeSignFrequency: float64(signCounts["-1"]) / float64(numSamples),
		SampledCircuits:       preview,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// HandleRepresent handles POST /api/pec/representations
func (h *Handler) HandleRepresent(w http.ResponseWriter, r *http.Request) {
	var req representRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ideal := circuitFromJSON(req.Circuit)

	var rep *pec.OperationRepresentation
	var err error
	switch req.NoiseModel {
	case "depolarizing", "":
		rep, err = pec.RepresentDepolarizing(ideal, req.Strength)
	case "amplitude_damping":
		rep, err = pec.RepresentAmplitudeDamping(ideal, req.Strength)
	default:
		http.Error(w, fmt.Sprintf("unknown noise model: %q", req.NoiseModel), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(representationToJSON(rep)); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func circuitFromJSON(c circuitJSON) circuits.Circuit {
	gates := make([]circuits.Gate, len(c.Gates))
	for i, g := range c.Gates {
		gates[i] = circuits.Gate{Name: g.Name, Qubits: g.Qubits, Param: g.Param}
	}
	out := circuits.New(gates...)
	if len(c.Measurements) > 0 {
		out = out.WithMeasurements(c.Measurements...)
	}
	return out
}

func circuitToJSON(c circuits.Circuit) circuitJSON {
	gates := make([]gateJSON, len(c.Gates))
	for i, g := range c.Gates {
		gates[i] = gateJSON{Name: g.Name, Qubits: g.Qubits, Param: g.Param}
	}
	return circuitJSON{Gates: gates, Measurements: c.Measurements}
}

func representationFromJSON(r representationJSON) (*pec.OperationRepresentation, error) {
	basis := make([]pec.BasisPair, len(r.Basis))
	for i, pair := range r.Basis {
		basis[i] = pec.BasisPair{
			Op:    pec.NewNoisyOperation(circuitFromJSON(pair.Circuit)),
			Coeff: pair.Coeff,
		}
	}
	return pec.NewOperationRepresentation(circuitFromJSON(r.Ideal), basis)
}

func representationToJSON(rep *pec.OperationRepresentation) representationJSON {
	basis := rep.Basis()
	pairs := make([]basisPairJSON, len(basis))
	for i, pair := range basis {
		pairs[i] = basisPairJSON{Circuit: circuitToJSON(pair.Op.Circuit), Coeff: pair.Coeff}
	}
	return representationJSON{
		Ideal: circuitToJSON(rep.Ideal()),
		Basis: pairs,
		Norm:  rep.Norm(),
	}
}
