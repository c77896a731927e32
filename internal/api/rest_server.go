package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/street-pursuit/internal/cache"
	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/middleware"
	"github.com/annel0/street-pursuit/internal/observability"
	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/annel0/street-pursuit/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
)

// MaxAdvanceMs это наибольший шаг /api/advance за один запрос
const MaxAdvanceMs = 600_000

// RestServer представляет REST API сервер симуляции
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	runner     *sim.Runner
	sessionID  string
	frames     storage.FrameStore
	codec      *storage.Codec
	cache      cache.SnapshotCache
	events     *EventLog
	webhooks   *OutboundWebhookManager
	metrics    *ServerMetrics
	log        *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string                  // адрес для запуска сервера
	ServiceName string                  // имя сервиса для otelgin и метрик
	Runner      *sim.Runner             // исполнитель сессии
	SessionID   string                  // идентификатор сессии
	Frames      storage.FrameStore      // записанные кадры, может быть nil
	Codec       *storage.Codec          // кодек кадров, обязателен при Frames
	Cache       cache.SnapshotCache     // кеш снапшотов, может быть nil
	Events      *EventLog               // журнал событий, может быть nil
	Webhooks    *OutboundWebhookManager // исходящие webhook'и, может быть nil
	Registerer  prometheus.Registerer   // nil: метрики HTTP не регистрируются
	Gatherer    prometheus.Gatherer     // источник /metrics
}

// GenericResponse это общий формат ответа API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "rest_api"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:    router,
		runner:    config.Runner,
		sessionID: config.SessionID,
		frames:    config.Frames,
		codec:     config.Codec,
		cache:     config.Cache,
		events:    config.Events,
		webhooks:  config.Webhooks,
		metrics:   NewServerMetrics(),
		log:       logging.GetAPILogger(),
	}
	rs.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/snapshot", rs.handleSnapshot)
		api.POST("/advance", rs.handleAdvance)
		api.GET("/input", rs.handleGetInput)
		api.POST("/input", rs.handleInput)
		api.POST("/reset", rs.handleReset)
		api.POST("/start", rs.handleStart)
		api.POST("/pause", rs.handlePause)
		api.GET("/events", rs.handleEvents)
		api.GET("/stats", rs.handleStats)

		api.GET("/frames", rs.handleFrameTicks)
		api.GET("/frames/latest", rs.handleLatestFrame)
		api.GET("/frames/:tick", rs.handleFrame)

		api.GET("/cache/snapshot", rs.handleCachedSnapshot)

		hooks := api.Group("/webhooks")
		hooks.GET("", rs.handleGetOutboundWebhooks)
		hooks.POST("", rs.handleCreateOutboundWebhook)
		hooks.GET("/events", rs.handleGetWebhookEventTypes)
		hooks.GET("/:id", rs.handleGetOutboundWebhook)
		hooks.PUT("/:id", rs.handleUpdateOutboundWebhook)
		hooks.DELETE("/:id", rs.handleDeleteOutboundWebhook)
	}
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop мягко останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"session": rs.sessionID,
		"process": rs.metrics.Runtime(),
	})
}

func (rs *RestServer) handleSnapshot(c *gin.Context) {
	ok(c, "Снапшот получен", rs.runner.Snapshot())
}

// AdvanceRequest это запрос на продвижение времени
type AdvanceRequest struct {
	Ms float64 `json:"ms"`
}

// AdvanceResponse это результат продвижения
type AdvanceResponse struct {
	Ticks    int          `json:"ticks"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

func (rs *RestServer) handleAdvance(c *gin.Context) {
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	if req.Ms < 0 || req.Ms > MaxAdvanceMs {
		fail(c, http.StatusBadRequest, "ms должно быть в диапазоне [0, 600000]")
		return
	}

	_, span := observability.Tracer().Start(c.Request.Context(), "sim.advance")
	ticks := rs.runner.Advance(req.Ms)
	span.SetAttributes(attribute.Float64("sim.ms", req.Ms), attribute.Int("sim.ticks", ticks))
	span.End()

	ok(c, "Время продвинуто", AdvanceResponse{Ticks: ticks, Snapshot: rs.runner.Snapshot()})
}

// InputRequest это изменение ввода. Held, если задан, заменяет набор
// удерживаемых действий целиком.
type InputRequest struct {
	Press   []string  `json:"press"`
	Release []string  `json:"release"`
	Held    *[]string `json:"held"`
}

func parseControls(names []string) ([]sim.Control, error) {
	out := make([]sim.Control, 0, len(names))
	for _, name := range names {
		ctl, err := sim.ParseControl(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ctl)
	}
	return out, nil
}

func (rs *RestServer) handleInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}

	press, err := parseControls(req.Press)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	release, err := parseControls(req.Release)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	var held []sim.Control
	if req.Held != nil {
		if held, err = parseControls(*req.Held); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Held != nil {
		rs.runner.SetHeld(held)
	}
	rs.runner.Release(release...)
	rs.runner.Press(press...)

	ok(c, "Ввод принят", gin.H{"held": rs.runner.Held()})
}

func (rs *RestServer) handleGetInput(c *gin.Context) {
	ok(c, "Удерживаемые действия", gin.H{"held": rs.runner.Held()})
}

// ResetRequest это пересборка мира
type ResetRequest struct {
	StartPlaying bool `json:"start_playing"`
}

func (rs *RestServer) handleReset(c *gin.Context) {
	var req ResetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
			return
		}
	}
	rs.runner.Reset(req.StartPlaying)
	rs.log.Info("🔄 Сессия %s сброшена (start_playing=%v)", rs.sessionID, req.StartPlaying)
	ok(c, "Мир пересобран", rs.runner.Snapshot())
}

func (rs *RestServer) handleStart(c *gin.Context) {
	rs.runner.Start()
	ok(c, "Игра запущена", rs.runner.Snapshot())
}

// PauseRequest это без Paused пауза переключается
type PauseRequest struct {
	Paused *bool `json:"paused"`
}

func (rs *RestServer) handlePause(c *gin.Context) {
	var req PauseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
			return
		}
	}
	if req.Paused != nil {
		rs.runner.SetPaused(*req.Paused)
	} else {
		rs.runner.TogglePause()
	}
	snap := rs.runner.Snapshot()
	ok(c, "Пауза обновлена", gin.H{"paused": snap.Paused, "mode": snap.Mode})
}

func (rs *RestServer) handleEvents(c *gin.Context) {
	if rs.events == nil {
		fail(c, http.StatusNotFound, "Журнал событий выключен")
		return
	}
	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "after должен быть неотрицательным целым")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		fail(c, http.StatusBadRequest, "limit должен быть неотрицательным целым")
		return
	}
	events, last := rs.events.After(after, limit)
	ok(c, "События получены", gin.H{"events": events, "last": last})
}

// handleStats возвращает статистику сервера и симуляции
func (rs *RestServer) handleStats(c *gin.Context) {
	snap := rs.runner.Snapshot()
	stats := gin.H{
		"process": rs.metrics.Full(),
		"sim": gin.H{
			"tick":   snap.Tick,
			"mode":   snap.Mode,
			"paused": snap.Paused,
			"counts": snap.Counts,
		},
	}
	if rs.cache != nil {
		stats["cache"] = rs.cache.GetMetrics()
	}
	if rs.frames != nil {
		if ticks, err := rs.frames.Ticks(c.Request.Context(), rs.sessionID); err == nil {
			stats["recorded_frames"] = len(ticks)
		}
	}
	ok(c, "Статистика сервера", stats)
}

func (rs *RestServer) handleFrameTicks(c *gin.Context) {
	if rs.frames == nil {
		fail(c, http.StatusNotFound, "Запись кадров выключена")
		return
	}
	ticks, err := rs.frames.Ticks(c.Request.Context(), rs.sessionID)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "Записанные тики", gin.H{"ticks": ticks})
}

func (rs *RestServer) handleLatestFrame(c *gin.Context) {
	if rs.frames == nil {
		fail(c, http.StatusNotFound, "Запись кадров выключена")
		return
	}
	frame, err := storage.LatestFrame(c.Request.Context(), rs.frames, rs.codec, rs.sessionID)
	rs.respondFrame(c, frame, err)
}

func (rs *RestServer) handleFrame(c *gin.Context) {
	if rs.frames == nil {
		fail(c, http.StatusNotFound, "Запись кадров выключена")
		return
	}
	tick, err := strconv.ParseUint(c.Param("tick"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Неверный номер тика")
		return
	}
	frame, err := storage.LoadFrame(c.Request.Context(), rs.frames, rs.codec, rs.sessionID, tick)
	rs.respondFrame(c, frame, err)
}

func (rs *RestServer) respondFrame(c *gin.Context, frame sim.Frame, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, "Кадр не найден")
	case err != nil:
		fail(c, http.StatusInternalServerError, err.Error())
	default:
		ok(c, "Кадр получен", frame)
	}
}

func (rs *RestServer) handleCachedSnapshot(c *gin.Context) {
	if rs.cache == nil {
		fail(c, http.StatusNotFound, "Кеш снапшотов выключен")
		return
	}
	snap, err := cache.Load(c.Request.Context(), rs.cache, rs.sessionID)
	switch {
	case cache.IsCacheMiss(err):
		fail(c, http.StatusNotFound, "Снапшот отсутствует в кеше")
	case err != nil:
		fail(c, http.StatusBadGateway, err.Error())
	default:
		ok(c, "Снапшот из кеша", snap)
	}
}
