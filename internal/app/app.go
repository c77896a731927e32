package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/street-pursuit/internal/api"
	"github.com/annel0/street-pursuit/internal/cache"
	"github.com/annel0/street-pursuit/internal/config"
	"github.com/annel0/street-pursuit/internal/eventbus"
	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/observability"
	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/annel0/street-pursuit/internal/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App собирает сессию симуляции и всю инфраструктуру вокруг неё:
// шину событий, запись кадров, кеш снапшотов, REST API и метрики.
type App struct {
	cfg       *config.Config
	log       *logging.Logger
	SessionID string

	Session  *sim.Session
	Runner   *sim.Runner
	Registry *prometheus.Registry

	Bus        eventbus.EventBus
	busMetrics *eventbus.MetricsExporter
	busLogSub  eventbus.Subscription

	Codec    *storage.Codec
	Frames   storage.FrameStore
	Recorder *storage.Recorder

	Cache  cache.SnapshotCache
	Mirror *cache.Mirror

	Events   *api.EventLog
	Webhooks *api.OutboundWebhookManager
	API      *api.RestServer

	metricsServer     *http.Server
	shutdownTelemetry observability.Shutdown
	closers           []func()
}

// SimOptions переводит конфигурацию в параметры сессии
func SimOptions(c config.SimConfig) sim.Options {
	opts := sim.DefaultOptions()
	opts.Seed = c.Seed
	opts.Traffic = c.Traffic
	if c.Police != nil {
		opts.Police = *c.Police
	}
	opts.Pedestrians = c.Pedestrians
	opts.ViewportWidth = c.ViewportWidth
	opts.ViewportHeight = c.ViewportHeight
	opts.MaxFrameDelta = c.MaxFrameDelta()
	return opts
}

// ConfigureLogging применяет раздел logging конфигурации
func ConfigureLogging(c config.LoggingConfig) error {
	console, err := logging.ParseLevel(c.ConsoleLevel)
	if err != nil {
		return err
	}
	file, err := logging.ParseLevel(c.FileLevel)
	if err != nil {
		return err
	}
	logging.Configure(logging.Options{Dir: c.Dir, ConsoleLevel: console, FileLevel: file})

	overrides := make(map[string]logging.Levels, len(c.Components))
	for component, lv := range c.Components {
		levels := logging.Levels{Console: console, File: file}
		if lv.Console != "" {
			if levels.Console, err = logging.ParseLevel(lv.Console); err != nil {
				return fmt.Errorf("logging.components.%s: %w", component, err)
			}
		}
		if lv.File != "" {
			if levels.File, err = logging.ParseLevel(lv.File); err != nil {
				return fmt.Errorf("logging.components.%s: %w", component, err)
			}
		}
		overrides[component] = levels
	}
	logging.GetLoggerManager().SetOverrides(overrides)
	return nil
}

// New создаёт приложение. При ошибке уже созданные компоненты закрываются.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{
		cfg:       cfg,
		log:       logging.GetServerLogger(),
		SessionID: cfg.Sim.SessionID,
		Registry:  prometheus.NewRegistry(),
	}
	if a.SessionID == "" {
		a.SessionID = uuid.NewString()
	}
	built := a
	defer func() {
		if err != nil {
			built.abort()
			a = nil
		}
	}()

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if a.shutdownTelemetry, err = observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	opts := SimOptions(cfg.Sim)
	a.Session = sim.NewSession(opts)
	a.Runner = sim.NewRunner(a.Session, sim.NewMetrics(a.Registry))
	if cfg.Sim.TickRate > 0 {
		a.Runner.SetInterval(time.Second / time.Duration(cfg.Sim.TickRate))
	}

	if err = a.initBus(); err != nil {
		return nil, err
	}
	if err = a.initRecorder(); err != nil {
		return nil, err
	}
	if err = a.initCache(); err != nil {
		return nil, err
	}

	a.Events = api.NewEventLog(api.DefaultEventLogSize)
	a.Runner.OnFrame(a.Events.Hook())

	a.Webhooks = api.NewOutboundWebhookManager(cfg.Telemetry.ServiceName)
	a.closers = append(a.closers, a.Webhooks.Stop)
	if err = a.Webhooks.Subscribe(ctx, a.Bus); err != nil {
		return nil, fmt.Errorf("webhooks: %w", err)
	}

	a.API = api.NewRestServer(api.Config{
		Port:        ":" + strconv.Itoa(cfg.Server.RESTPort),
		ServiceName: cfg.Telemetry.ServiceName,
		Runner:      a.Runner,
		SessionID:   a.SessionID,
		Frames:      a.Frames,
		Codec:       a.Codec,
		Cache:       a.Cache,
		Events:      a.Events,
		Webhooks:    a.Webhooks,
		Registerer:  a.Registry,
		Gatherer:    a.Registry,
	})

	a.metricsServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.MetricsPort),
		Handler:           promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Sim.Autostart {
		a.Runner.Start()
	}
	a.log.Info("🎮 Сессия %s готова (seed=%d, трафик=%d, полиция=%d, пешеходы=%d)",
		a.SessionID, opts.Seed, opts.Traffic, opts.Police, opts.Pedestrians)
	return a, nil
}

// initBus подключает шину: JetStream при заданном URL, иначе в памяти
func (a *App) initBus() error {
	if url := a.cfg.EventBus.URL; url != "" {
		bus, err := eventbus.NewJetStreamBus(url, a.cfg.EventBus.Stream, a.cfg.EventBus.RetentionDuration())
		if err != nil {
			return fmt.Errorf("eventbus: %w", err)
		}
		a.Bus = bus
		a.log.Info("📡 Шина событий: NATS JetStream %s, стрим %s", url, a.cfg.EventBus.Stream)
	} else {
		a.Bus = eventbus.NewMemoryBus(a.cfg.EventBus.Capacity)
		a.log.Info("📡 Шина событий в памяти (ёмкость %d)", a.cfg.EventBus.Capacity)
	}
	a.closers = append(a.closers, func() { _ = a.Bus.Close() })

	sub, err := eventbus.StartLoggingListener(a.Bus)
	if err != nil {
		return fmt.Errorf("eventbus logger: %w", err)
	}
	a.busLogSub = sub
	a.closers = append(a.closers, sub.Unsubscribe)

	a.busMetrics = eventbus.NewMetricsExporter(a.Bus, a.Registry)
	a.busMetrics.Start(5 * time.Second)
	a.closers = append(a.closers, a.busMetrics.Stop)

	a.Runner.OnFrame(eventbus.NewSimPublisher(a.Bus, a.SessionID).Hook())
	return nil
}

// initRecorder открывает хранилище кадров: Badger при заданном пути, иначе в памяти
func (a *App) initRecorder() error {
	codec, err := storage.NewCodec()
	if err != nil {
		return err
	}
	a.Codec = codec
	a.closers = append(a.closers, codec.Close)

	if path := a.cfg.Recorder.Path; path != "" {
		store, err := storage.NewBadgerFrameStore(path)
		if err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
		a.Frames = store
		a.log.Info("💾 Запись кадров в BadgerDB %s каждые %d тиков", path, a.cfg.Recorder.EveryTicks)
	} else {
		a.Frames = storage.NewMemoryFrameStore()
	}
	a.closers = append(a.closers, func() { _ = a.Frames.Close() })

	a.Recorder = storage.NewRecorder(a.Frames, a.Codec, a.SessionID, a.cfg.Recorder.EveryTicks)
	a.closers = append(a.closers, a.Recorder.Close)
	a.Runner.OnFrame(a.Recorder.Hook())
	return nil
}

// initCache подключает кеш снапшотов: Redis при заданном адресе, иначе в памяти
func (a *App) initCache() error {
	c := a.cfg.Cache
	if c.RedisURL != "" {
		rc, err := cache.NewRedisCache(&cache.CacheConfig{
			RedisURL:      c.RedisURL,
			RedisPassword: c.RedisPassword,
			RedisDB:       c.RedisDB,
			TTL:           c.TTL(),
		})
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		a.Cache = rc
	} else {
		a.Cache = cache.NewMemoryCache(c.TTL())
	}
	a.closers = append(a.closers, func() { _ = a.Cache.Close() })

	a.Mirror = cache.NewMirror(a.Cache, a.SessionID)
	a.closers = append(a.closers, a.Mirror.Close)
	a.Runner.OnFrame(a.Mirror.Hook())
	return nil
}

// Run запускает цикл симуляции, REST API и сервер метрик и блокируется
// до отмены ctx или ошибки одного из серверов.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	runnerDone := make(chan struct{})

	go func() {
		defer close(runnerDone)
		_ = a.Runner.Run(ctx)
	}()
	go func() {
		if err := a.API.Start(); err != nil {
			errCh <- fmt.Errorf("rest api: %w", err)
		}
	}()
	go func() {
		a.log.Info("📈 Prometheus метрики на %s", a.metricsServer.Addr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.log.Error("❌ %v", runErr)
	}
	cancel()
	<-runnerDone

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := a.API.Stop(shutdownCtx); err != nil {
		a.log.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	return runErr
}

// Close останавливает фоновые компоненты в обратном порядке создания
func (a *App) Close() {
	a.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			a.log.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}
	a.log.Info("👋 Сессия %s остановлена", a.SessionID)
}

// abort освобождает частично собранное приложение после ошибки New
func (a *App) abort() {
	a.closeAll()
	if a.shutdownTelemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTelemetry(ctx); err != nil {
		a.log.Warn("Ошибка остановки телеметрии: %v", err)
	}
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
