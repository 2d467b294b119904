// Package api служебный HTTP API зоны на gin: состояние карт и отладочная отправка запросов.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/ro-zone/internal/inbound"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/middleware"
	"github.com/annel0/ro-zone/internal/world"
)

// snapshotTimeout сколько ждать, пока карта ответит из своего потока
const snapshotTimeout = time.Second

// MapStatus состояние карты на момент снимка
type MapStatus struct {
	Name        string  `json:"name"`
	Tick        uint64  `json:"tick"`
	Elapsed     float64 `json:"elapsed"`
	Entities    int     `json:"entities"`
	AreaEffects int     `json:"area_effects"`
	GroundItems int     `json:"ground_items"`
	Respawns    int     `json:"pending_respawns"`
}

// RequestBody запрос клиента в JSON, тип: по имени ("StartMove", "Skill"…)
type RequestBody struct {
	Actor  uint64 `json:"actor" binding:"required"`
	Type   string `json:"type" binding:"required"`
	Target uint64 `json:"target"`
	Params []int  `json:"params"`
	Text   string `json:"text"`
}

// Config параметры сервера
type Config struct {
	Addr       string
	World      *world.World
	Requests   *inbound.Router
	// Registerer для HTTP-метрик, nil: без метрик
	Registerer prometheus.Registerer
}

// Server служебный HTTP API
type Server struct {
	router   *gin.Engine
	world    *world.World
	requests *inbound.Router
	http     *http.Server
	log      *logging.Logger
}

// NewServer собирает gin-роутер с трассировкой, логом и метриками запросов
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8088"
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("zone_api"))
	router.Use(middleware.NewRequestLogger().Handler())
	if cfg.Registerer != nil {
		router.Use(middleware.NewPrometheusMiddleware(cfg.Registerer).Handler())
	}

	s := &Server{
		router:   router,
		world:    cfg.World,
		requests: cfg.Requests,
		http:     &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second},
		log:      logging.GetComponentLogger(logging.ComponentAPI),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/maps", s.handleMaps)
	api.GET("/maps/:name", s.handleMap)
	if s.requests != nil {
		api.POST("/requests", s.handleRequest)
	}
}

// Handler для httptest
func (s *Server) Handler() http.Handler { return s.router }

// Start поднимает сервер, не блокируя
func (s *Server) Start() {
	go func() {
		s.log.Info("🌐 Служебный API доступен по адресу %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("❌ Служебный API: %v", err)
		}
	}()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"maps":    len(s.world.Maps()),
		"players": s.world.PlayerCount(),
	})
}

func (s *Server) handleMaps(c *gin.Context) {
	names := s.world.Maps()
	out := make([]MapStatus, 0, len(names))
	for _, name := range names {
		m, ok := s.world.Map(name)
		if !ok {
			continue
		}
		st, err := snapshot(c.Request.Context(), m)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "map": name})
			return
		}
		out = append(out, st)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleMap(c *gin.Context) {
	m, ok := s.world.Map(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": world.ErrMapNotFound.Error()})
		return
	}
	st, err := snapshot(c.Request.Context(), m)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleRequest(c *gin.Context) {
	var body RequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pt, err := inbound.ParsePacketType(body.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = s.requests.Dispatch(&inbound.Request{
		Actor:  body.Actor,
		Type:   pt,
		Target: body.Target,
		Params: body.Params,
		Text:   body.Text,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
	case errors.Is(err, world.ErrPlayerNotFound), errors.Is(err, world.ErrMapNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, world.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// snapshot читает состояние карты её же потоком
func snapshot(ctx context.Context, m *world.Map) (MapStatus, error) {
	ch := make(chan MapStatus, 1)
	err := m.EnqueueWait(func(m *world.Map) {
		ch <- MapStatus{
			Name:        m.Name,
			Tick:        m.Tick(),
			Elapsed:     m.Time.Elapsed,
			Entities:    m.EntityCount(),
			AreaEffects: m.AreaOfEffectCount(),
			GroundItems: m.GroundItemCount(),
			Respawns:    m.PendingRespawns(),
		}
	}, snapshotTimeout)
	if err != nil {
		return MapStatus{}, err
	}

	timer := time.NewTimer(snapshotTimeout)
	defer timer.Stop()
	select {
	case st := <-ch:
		return st, nil
	case <-timer.C:
		return MapStatus{}, errors.New("карта " + m.Name + " не ответила")
	case <-ctx.Done():
		return MapStatus{}, ctx.Err()
	}
}
