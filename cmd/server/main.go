package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/street-pursuit/internal/app"
	"github.com/annel0/street-pursuit/internal/config"
	"github.com/annel0/street-pursuit/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $GAME_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if err := app.ConfigureLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	if err := logging.InitDefaultLogger(logging.ComponentServer); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	logging.Info("🚓 Запуск Street Pursuit: REST=%d, метрики=%d", cfg.Server.RESTPort, cfg.Server.MetricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logging.Error("❌ Ошибка инициализации: %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d/api/snapshot", cfg.Server.RESTPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.RESTPort)

	runErr := a.Run(ctx)
	logging.Info("📡 Завершение работы...")
	a.Close()

	if runErr != nil {
		logging.Error("❌ %v", runErr)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}
