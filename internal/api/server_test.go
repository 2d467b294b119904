package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/inbound"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

func newTestServer(t *testing.T) (*Server, *world.World, *prometheus.Registry) {
	t.Helper()
	w := world.New(world.Options{TickInterval: 10 * time.Millisecond, CommandQueue: 64, Seed: 1}, nil, nil)
	_, err := w.AddMap("prontera", spatial.NewWalkData(40, 40, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Wait()
	})
	w.Start(ctx)

	reg := inbound.NewRegistry()
	inbound.RegisterDefaults(reg)
	promReg := prometheus.NewRegistry()
	s := NewServer(Config{World: w, Requests: inbound.NewRouter(w, reg, nil), Registerer: promReg})
	return s, w, promReg
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["maps"])
}

func TestMapSnapshotGoesThroughMapThread(t *testing.T) {
	s, w, _ := newTestServer(t)
	p := w.CreatePlayer("Тест", 0, 10)
	require.NoError(t, w.SpawnPlayer(p, "prontera", vec.Vec2{X: 5, Y: 5}))

	require.Eventually(t, func() bool {
		rec := do(s, http.MethodGet, "/api/maps/prontera", "")
		if rec.Code != http.StatusOK {
			return false
		}
		var st MapStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			return false
		}
		return st.Name == "prontera" && st.Entities == 1 && st.Tick > 0
	}, 2*time.Second, 20*time.Millisecond, "снимок карты должен увидеть игрока")

	rec := do(s, http.MethodGet, "/api/maps/geffen", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, http.MethodGet, "/api/maps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []MapStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestPostRequestValidation(t *testing.T) {
	s, w, promReg := newTestServer(t)

	rec := do(s, http.MethodPost, "/api/requests", `{"actor": 1, "type": "Dance"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "неизвестный тип запроса")

	rec = do(s, http.MethodPost, "/api/requests", `{"actor": 99, "type": "StopAction"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "игрока нет в мире")

	p := w.CreatePlayer("Тест", 0, 10)
	require.NoError(t, w.SpawnPlayer(p, "prontera", vec.Vec2{X: 5, Y: 5}))
	body := `{"actor": ` + strconv.FormatUint(p.Entity.Pack(), 10) + `, "type": "SitStand", "params": [1]}`
	rec = do(s, http.MethodPost, "/api/requests", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	families, err := promReg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "zone_api_request_duration_seconds" {
			found = true
		}
	}
	assert.True(t, found, "HTTP-метрики регистрируются в переданном регистре")
}
