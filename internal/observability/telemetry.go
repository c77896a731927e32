package observability

import (
	"context"
	"time"

	"github.com/annel0/street-pursuit/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName это имя трейсера HTTP-обработчиков симуляции
const TracerName = "github.com/annel0/street-pursuit"

// Shutdown завершает экспорт трейсов
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// При enabled == false ничего не настраивает: глобальный провайдер остаётся no-op.
// Адрес коллектора берётся из OTEL_EXPORTER_OTLP_ENDPOINT (по умолчанию localhost:4318).
func InitTelemetry(ctx context.Context, serviceName string, enabled bool) (Shutdown, error) {
	if !enabled {
		logging.Debug("OpenTelemetry выключен")
		return noopShutdown, nil
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP HTTP, service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Tracer возвращает трейсер текущего глобального провайдера
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
