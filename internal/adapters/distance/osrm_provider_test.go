package distance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, cfg OSRMConfig) *OSRMProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	cfg.HTTPClient = server.Client()
	if cfg.PairwiseMaxStops == 0 {
		cfg.PairwiseMaxStops = 10
	}
	if cfg.GeometryMaxStops == 0 {
		cfg.GeometryMaxStops = 25
	}
	return NewOSRMProvider(cfg)
}

func linePoints(n int) []domain.Coordinates {
	pts := make([]domain.Coordinates, n)
	for i := range pts {
		pts[i] = domain.Coordinates{Lon: float64(i + 1), Lat: 0}
	}
	return pts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestMatrix_TableSuccess(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/table/v1/driving/13.4,52.5;13.5,52.6", r.URL.Path)
		assert.Equal(t, "distance,duration", r.URL.Query().Get("annotations"))
		writeJSON(w, http.StatusOK, map[string]any{
			"code":      "Ok",
			"distances": [][]float64{{0, 1000}, {1500, 0}},
			"durations": [][]float64{{0, 90}, {120, 0}},
		})
	}, OSRMConfig{})

	m, err := p.Matrix(context.Background(), []domain.Coordinates{
		{Lon: 13.4, Lat: 52.5},
		{Lon: 13.5, Lat: 52.6},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRoadNetwork, m.Source)
	assert.Equal(t, [][]float64{{0, 1}, {1.5, 0}}, m.Km)
	assert.Equal(t, [][]float64{{0, 90}, {120, 0}}, m.Seconds)
	assert.Zero(t, m.Unreachable)
}

func TestMatrix_TableWithoutDurations(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","distances":[[0,500],[700,0]],"durations":[[0]]}`))
	}, OSRMConfig{})

	m, err := p.Matrix(context.Background(), linePoints(2))
	require.NoError(t, err)
	assert.Nil(t, m.Seconds)
	assert.Zero(t, m.DurationSeconds(0, 1))
}

func TestMatrix_NullCellsBecomeZero(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","distances":[[0,null,500],[null,0,700],[800,900,0]]}`))
	}, OSRMConfig{})

	m, err := p.Matrix(context.Background(), linePoints(3))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Unreachable)
	assert.Zero(t, m.Km[0][1])
	assert.Zero(t, m.Km[1][0])
	assert.InDelta(t, 0.5, m.Km[0][2], 1e-9)
}

func TestMatrix_FewerThanTwoPointsSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, OSRMConfig{})

	m, err := p.Matrix(context.Background(), linePoints(1))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Size())
	assert.Zero(t, calls.Load())
}

func TestFetchTable_NonOkCode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": "InvalidQuery", "message": "bad coords"})
	}, OSRMConfig{})

	_, err := p.fetchTable(context.Background(), linePoints(2))
	var ce *CodeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "InvalidQuery", ce.Code)
}

func TestFetchTable_AllZeroIsEmpty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","distances":[[0,0],[null,0]]}`))
	}, OSRMConfig{})

	_, err := p.fetchTable(context.Background(), linePoints(2))
	assert.ErrorIs(t, err, ports.ErrEmptyMatrix)
}

func TestFetchTable_WrongShape(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","distances":[[0,1]]}`))
	}, OSRMConfig{})

	_, err := p.fetchTable(context.Background(), linePoints(2))
	assert.Error(t, err)
}

// pairwiseServer fails the table endpoint and answers each route request
// with a distance of 1 km per call so far.
type pairwiseServer struct {
	mu       sync.Mutex
	paths    []string
	arrived  []time.Time
	inflight atomic.Int32
	maxPar   atomic.Int32
	routeErr bool
}

func (s *pairwiseServer) handle(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/table/") {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	cur := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		m := s.maxPar.Load()
		if cur <= m || s.maxPar.CompareAndSwap(m, cur) {
			break
		}
	}

	s.mu.Lock()
	s.paths = append(s.paths, strings.TrimPrefix(r.URL.Path, "/route/v1/driving/"))
	s.arrived = append(s.arrived, time.Now())
	n := len(s.paths)
	s.mu.Unlock()

	if s.routeErr {
		http.Error(w, "down", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"code": "Ok",
		"routes": []map[string]any{{
			"distance": float64(n * 1000),
			"duration": 60,
			"geometry": map[string]any{"type": "LineString", "coordinates": [][2]float64{{1, 0}, {2, 0}}},
		}},
	})
}

func TestMatrix_PairwiseFallback(t *testing.T) {
	srv := &pairwiseServer{}
	p := newTestProvider(t, srv.handle, OSRMConfig{PairwiseDelay: time.Millisecond})

	m, err := p.Matrix(context.Background(), linePoints(4))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"1,0;2,0", "1,0;3,0", "1,0;4,0",
		"2,0;3,0", "2,0;4,0",
		"3,0;4,0",
	}, srv.paths)
	assert.EqualValues(t, 1, srv.maxPar.Load())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, m.Km[i][j], m.Km[j][i], "cell %d,%d", i, j)
		}
	}
	assert.InDelta(t, 1.0, m.Km[0][1], 1e-9)
	assert.InDelta(t, 6.0, m.Km[2][3], 1e-9)
	assert.InDelta(t, 60.0, m.Seconds[0][1], 1e-9)
	assert.InDelta(t, 60.0, m.Seconds[3][2], 1e-9)
}

func TestMatrix_PairwiseRequestsArePaced(t *testing.T) {
	const delay = 20 * time.Millisecond
	// Allows for scheduling jitter between the client send and server receive.
	const slack = 3 * time.Millisecond

	srv := &pairwiseServer{}
	p := newTestProvider(t, srv.handle, OSRMConfig{PairwiseDelay: delay})

	_, err := p.Matrix(context.Background(), linePoints(4))
	require.NoError(t, err)

	srv.mu.Lock()
	arrived := append([]time.Time(nil), srv.arrived...)
	srv.mu.Unlock()

	require.Len(t, arrived, 6)
	for i := 1; i < len(arrived); i++ {
		gap := arrived[i].Sub(arrived[i-1])
		assert.GreaterOrEqual(t, gap, delay-slack, "gap before request %d", i)
	}
	assert.GreaterOrEqual(t, arrived[5].Sub(arrived[0]), 5*delay-slack)
}

func TestNewOSRMProvider_DefaultPairwiseDelay(t *testing.T) {
	p := NewOSRMProvider(OSRMConfig{})
	assert.Equal(t, DefaultPairwiseDelay, p.pairwiseDelay)

	p = NewOSRMProvider(OSRMConfig{PairwiseDelay: -time.Second})
	assert.Equal(t, DefaultPairwiseDelay, p.pairwiseDelay)
}

func TestMatrix_PairwiseAbortsOnFailure(t *testing.T) {
	srv := &pairwiseServer{routeErr: true}
	p := newTestProvider(t, srv.handle, OSRMConfig{})

	_, err := p.Matrix(context.Background(), linePoints(5))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrPairwiseNotApplicable)
	assert.Len(t, srv.paths, 1)
}

func TestMatrix_AboveThresholdNotApplicable(t *testing.T) {
	srv := &pairwiseServer{}
	p := newTestProvider(t, srv.handle, OSRMConfig{})

	_, err := p.Matrix(context.Background(), linePoints(12))
	require.ErrorIs(t, err, ports.ErrPairwiseNotApplicable)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Empty(t, srv.paths)
}

func TestMatrix_CooldownAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}, OSRMConfig{Cooldown: time.Minute})

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	_, err := p.Matrix(context.Background(), linePoints(3))
	require.ErrorIs(t, err, ports.ErrServiceCoolingDown)
	assert.False(t, p.Available())
	assert.EqualValues(t, 1, calls.Load(), "pairwise must be skipped while cooling down")

	_, err = p.Matrix(context.Background(), linePoints(3))
	require.ErrorIs(t, err, ports.ErrServiceCoolingDown)
	assert.EqualValues(t, 1, calls.Load())

	geom, err := p.Route(context.Background(), linePoints(3))
	require.NoError(t, err)
	assert.Nil(t, geom)

	now = now.Add(time.Minute)
	assert.True(t, p.Available())
}

func TestMatrix_CooldownAboveThresholdNotApplicable(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}, OSRMConfig{Cooldown: time.Minute})

	_, err := p.Matrix(context.Background(), linePoints(3))
	require.ErrorIs(t, err, ports.ErrServiceCoolingDown)

	_, err = p.Matrix(context.Background(), linePoints(12))
	require.ErrorIs(t, err, ports.ErrPairwiseNotApplicable)
	assert.ErrorIs(t, err, ports.ErrServiceCoolingDown)
	assert.EqualValues(t, 1, calls.Load())

	_, err = p.Matrix(context.Background(), linePoints(10))
	require.ErrorIs(t, err, ports.ErrServiceCoolingDown)
	assert.NotErrorIs(t, err, ports.ErrPairwiseNotApplicable)
}

func TestMatrix_ClientErrorDoesNotCoolDown(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}, OSRMConfig{Cooldown: time.Minute})

	_, err := p.Matrix(context.Background(), linePoints(2))
	require.Error(t, err)
	assert.True(t, p.Available())
}

func TestRoute_Geometry(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "full", q.Get("overview"))
		assert.Equal(t, "geojson", q.Get("geometries"))
		assert.Equal(t, "false", q.Get("steps"))
		assert.True(t, strings.HasPrefix(r.URL.Path, "/route/v1/driving/"))

		writeJSON(w, http.StatusOK, map[string]any{
			"code": "Ok",
			"routes": []map[string]any{{
				"distance": 12345.0,
				"duration": 1200.0,
				"geometry": map[string]any{
					"type":        "LineString",
					"coordinates": [][2]float64{{1, 0}, {1.5, 0}, {2, 0}},
				},
			}},
		})
	}, OSRMConfig{})

	geom, err := p.Route(context.Background(), linePoints(2))
	require.NoError(t, err)
	require.NotNil(t, geom)
	assert.InDelta(t, 12.345, geom.DistanceKm, 1e-9)
	assert.InDelta(t, 20.0, geom.DurationMinutes, 1e-9)
	assert.Equal(t, [][2]float64{{1, 0}, {1.5, 0}, {2, 0}}, geom.Coordinates)
}

func TestRoute_CapsWaypoints(t *testing.T) {
	var path string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = strings.TrimPrefix(r.URL.Path, "/route/v1/driving/")
		writeJSON(w, http.StatusOK, map[string]any{"code": "Ok", "routes": []map[string]any{{"distance": 1.0}}})
	}, OSRMConfig{GeometryMaxStops: 25})

	_, err := p.Route(context.Background(), linePoints(30))
	require.NoError(t, err)
	assert.Len(t, strings.Split(path, ";"), 25)
}

func TestRoute_NoRoute(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 400 NoRoute", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": "NoRoute", "message": "Impossible route"})
		}},
		{"ok status NoRoute code", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"code": "NoRoute"})
		}},
		{"empty routes", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"code": "Ok", "routes": []any{}})
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, tc.handler, OSRMConfig{})
			geom, err := p.Route(context.Background(), linePoints(2))
			require.NoError(t, err)
			assert.Nil(t, geom)
		})
	}
}

func TestRoute_Errors(t *testing.T) {
	t.Run("malformed payload", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":`))
		}, OSRMConfig{})
		_, err := p.Route(context.Background(), linePoints(2))
		assert.Error(t, err)
	})

	t.Run("http error", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		}, OSRMConfig{})
		_, err := p.Route(context.Background(), linePoints(2))
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.Code)
	})

	t.Run("single point", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		}, OSRMConfig{})
		geom, err := p.Route(context.Background(), linePoints(1))
		require.NoError(t, err)
		assert.Nil(t, geom)
	})
}
