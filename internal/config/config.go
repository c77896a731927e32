package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SimConfig задаёт параметры сессии симуляции
type SimConfig struct {
	SessionID       string  `yaml:"session_id"` // пусто: новый UUID при запуске
	Seed            int64   `yaml:"seed"`
	TickRate        int     `yaml:"tick_rate"`
	MaxFrameDeltaMs int     `yaml:"max_frame_delta_ms"`
	Traffic         int     `yaml:"traffic"`
	Police          *int    `yaml:"police"` // 0 допустим, поэтому указатель
	Pedestrians     int     `yaml:"pedestrians"`
	ViewportWidth   float64 `yaml:"viewport_width"`
	ViewportHeight  float64 `yaml:"viewport_height"`
	Autostart       bool    `yaml:"autostart"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто: шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

// RecorderConfig настраивает запись кадров
type RecorderConfig struct {
	Path       string `yaml:"path"` // пусто: хранилище в памяти
	EveryTicks int    `yaml:"every_ticks"`
}

// CacheConfig настраивает зеркало последнего снапшота в Redis
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"` // пусто: выключено
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir          string                     `yaml:"dir"`
	ConsoleLevel string                     `yaml:"console_level"`
	FileLevel    string                     `yaml:"file_level"`
	Components   map[string]ComponentLevels `yaml:"components"`
}

// ComponentLevels переопределяет пороги одного компонента; пустое поле
// наследует общий уровень
type ComponentLevels struct {
	Console string `yaml:"console"`
	File    string `yaml:"file"`
}

// Defaults заполняет все незаданные поля значениями по умолчанию
func (c *Config) Defaults() *Config {
	if c.Sim.Seed == 0 {
		c.Sim.Seed = 20260207
	}
	if c.Sim.TickRate <= 0 {
		c.Sim.TickRate = 60
	}
	if c.Sim.MaxFrameDeltaMs <= 0 {
		c.Sim.MaxFrameDeltaMs = 50
	}
	if c.Sim.Traffic <= 0 {
		c.Sim.Traffic = 22
	}
	if c.Sim.Police == nil {
		police := 6
		c.Sim.Police = &police
	}
	if c.Sim.Pedestrians <= 0 {
		c.Sim.Pedestrians = 58
	}
	if c.Sim.ViewportWidth <= 0 {
		c.Sim.ViewportWidth = 1280
	}
	if c.Sim.ViewportHeight <= 0 {
		c.Sim.ViewportHeight = 720
	}
	c.Server.RESTPort = c.Server.GetRESTPort()
	c.Server.MetricsPort = c.Server.GetMetricsPort()
	if c.EventBus.Stream == "" {
		c.EventBus.Stream = "SIM"
	}
	if c.EventBus.Retention <= 0 {
		c.EventBus.Retention = 24
	}
	if c.EventBus.Capacity <= 0 {
		c.EventBus.Capacity = 1024
	}
	if c.Recorder.EveryTicks <= 0 {
		c.Recorder.EveryTicks = 30
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 30
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "street-pursuit"
	}
	if c.Logging.ConsoleLevel == "" {
		c.Logging.ConsoleLevel = "info"
	}
	if c.Logging.FileLevel == "" {
		c.Logging.FileLevel = "debug"
	}
	return c
}

// RetentionDuration возвращает срок хранения событий в стриме
func (e EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// TTL возвращает срок жизни снапшота в кэше
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MaxFrameDelta возвращает предел реального времени кадра
func (s SimConfig) MaxFrameDelta() time.Duration {
	return time.Duration(s.MaxFrameDeltaMs) * time.Millisecond
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать путь из ENV GAME_CONFIG; если не задан и он,
// возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return (&Config{}).Defaults(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg.Defaults(), nil
}
