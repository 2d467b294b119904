package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddlewareLabelsRoutes(t *testing.T) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewPrometheusMiddleware(registry).Handler())
	r.GET("/api/maps/:name", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, path := range []string{"/api/maps/prontera", "/api/maps/geffen", "/nowhere"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	families, err := registry.Gather()
	require.NoError(t, err)

	paths := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "zone_api_request_duration_seconds" {
			continue
		}
		for _, m := range mf.Metric {
			for _, l := range m.Label {
				if l.GetName() == "path" {
					paths[l.GetValue()] += m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	assert.Equal(t, uint64(2), paths["/api/maps/:name"], "параметры маршрута не размножают метки")
	assert.Equal(t, uint64(1), paths["unmatched"])
}

func TestRequestLoggerSetsTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger().Handler())

	var traceID string
	r.GET("/health", func(c *gin.Context) {
		v, ok := c.Get(TraceIDKey)
		require.True(t, ok, "trace_id должен быть в контексте")
		traceID = v.(string)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, traceID)
}
