package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()
	h := NewHandler(10_000, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func identityRepresentationJSON() map[string]interface{} {
	return map[string]interface{}{
		"ideal": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "I", "qubits": []int{0}}},
		},
		"basis": []map[string]interface{}{
			{
				"circuit": map[string]interface{}{
					"gates": []map[string]interface{}{{"name": "X", "qubits": []int{0}}},
				},
				"coeff": 0.5,
			},
			{
				"circuit": map[string]interface{}{
					"gates": []map[string]interface{}{{"name": "Z", "qubits": []int{0}}},
				},
				"coeff": -0.5,
			},
		},
	}
}

func TestHandleSampleSignFrequency(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/pec/sample", map[string]interface{}{
		"ideal": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "I", "qubits": []int{0}}},
		},
		"representations": []map[string]interface{}{identityRepresentationJSON()},
		"num_samples":     1000,
		"seed":            7,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Norm                  float64        `json:"norm"`
		NumSamples            int            `json:"num_samples"`
		SignCounts            map[string]int `json:"sign_counts"`
		NegativeSignFrequency float64        `json:"negative_sign_frequency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 1.0, resp.Norm, 1e-12)
	assert.Equal(t, 1000, resp.NumSamples)
	assert.Equal(t, 1000, resp.SignCounts["+1"]+resp.SignCounts["-1"])
	assert.InDelta(t, 0.5, resp.NegativeSignFrequency, 0.05)
}

func TestHandleSampleDeterministicForEqualSeeds(t *testing.T) {
	router := testRouter(t)

	body := map[string]interface{}{
		"ideal": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "I", "qubits": []int{0}}},
		},
		"representations": []map[string]interface{}{identityRepresentationJSON()},
		"num_samples":     200,
		"seed":            42,
	}

	first := postJSON(t, router, "/pec/sample", body)
	second := postJSON(t, router, "/pec/sample", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestHandleSampleValidation(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/pec/sample", map[string]interface{}{
		"ideal": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "I", "qubits": []int{0}}},
		},
		"representations": []map[string]interface{}{identityRepresentationJSON()},
		"num_samples":     1_000_000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "sample counts above the cap are rejected")

	rec = postJSON(t, router, "/pec/sample", map[string]interface{}{
		"ideal": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "H", "qubits": []int{0}}},
		},
		"representations": []map[string]interface{}{identityRepresentationJSON()},
		"num_samples":     10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "missing representation fails the run")
}

func TestHandleRepresentDepolarizing(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/pec/representations", map[string]interface{}{
		"circuit": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "H", "qubits": []int{0}}},
		},
		"noise_model": "depolarizing",
		"strength":    0.1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Basis []struct {
			Coeff float64 `json:"coeff"`
		} `json:"basis"`
		Norm float64 `json:"norm"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Basis, 4)
	assert.InDelta(t, (1+0.05)/0.9, resp.Norm, 1e-9)
}

func TestHandleRepresentValidation(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/pec/representations", map[string]interface{}{
		"circuit": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "H", "qubits": []int{0}}},
		},
		"noise_model": "unknown-noise",
		"strength":    0.1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/pec/representations", map[string]interface{}{
		"circuit": map[string]interface{}{
			"gates": []map[string]interface{}{{"name": "H", "qubits": []int{0}}},
		},
		"noise_model": "depolarizing",
		"strength":    1.2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
