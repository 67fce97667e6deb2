package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"route-optimizer-service/internal/api/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAvailability bool

func (f fixedAvailability) Available() bool { return bool(f) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		h    *HealthHandler
		want string
	}{
		{"no routing service", &HealthHandler{}, "disabled"},
		{"available", &HealthHandler{Road: fixedAvailability(true)}, "available"},
		{"cooling down", &HealthHandler{Road: fixedAvailability(false)}, "cooling_down"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, rr.Code)

			var res dto.HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
			assert.Equal(t, "ok", res.Status)
			assert.Equal(t, tc.want, res.RoadNetwork)
		})
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	(&HealthHandler{}).Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
