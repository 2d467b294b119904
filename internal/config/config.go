package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации зонового сервера.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Data       DataConfig       `yaml:"data"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	API        APIConfig        `yaml:"api"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Debug      DebugConfig      `yaml:"debug"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SimulationConfig параметры тикового цикла
type SimulationConfig struct {
	TickRate        int      `yaml:"tick_rate"`         // тиков в секунду на карту
	Maps            []string `yaml:"maps"`              // карты, запускаемые при старте
	CommandQueue    int      `yaml:"command_queue"`     // размер очереди входящих команд карты
	MaxViewDistance int      `yaml:"max_view_distance"` // радиус видимости игроков в клетках
	Seed            int64    `yaml:"seed"`              // 0: случайный
	DefaultMapSize  int      `yaml:"default_map_size"`  // размер карты без файла геометрии
	TerrainDensity  float64  `yaml:"terrain_density"`   // доля препятствий на такой карте, 0: ровное поле
}

// DataConfig пути к статическим таблицам
type DataConfig struct {
	Dir string `yaml:"dir"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто: in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
	// CompressAbove пачки крупнее этого размера в байтах сжимаются zstd, 0: не сжимать
	CompressAbove int `yaml:"compress_above"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

// APIConfig служебный HTTP API: состояние карт и отладочная отправка запросов
type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`     // host:port OTLP/HTTP, пусто: из ENV или localhost:4318
	SampleRatio float64 `yaml:"sample_ratio"` // доля тиков с трейсом, 0: все
}

// DebugConfig заменяет отладочные проверки времени компиляции
type DebugConfig struct {
	Assertions           bool `yaml:"assertions"`             // паника на нарушении инвариантов
	UnlimitedSkillPoints bool `yaml:"unlimited_skill_points"` // 999 очков навыков
	AdminByDefault       bool `yaml:"admin_by_default"`       // все игроки: администраторы
	CheckVisibility      bool `yaml:"check_visibility"`       // сверка списка видимых игроков каждый тик
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Components уровни отдельных компонентов поверх Level: sim, combat, data...
	Components map[string]string `yaml:"components"`
}

// TickInterval возвращает длительность одного тика
func (s SimulationConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 20
	}
	return time.Second / time.Duration(s.TickRate)
}

// GetMetricsPort возвращает порт Prometheus с поддержкой fallback значений
func (m *MetricsConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(m.Port, "ZONE_METRICS_PORT", 2112)
}

// GetAPIPort возвращает порт служебного API
func (a *APIConfig) GetAPIPort() int {
	return getPortWithEnvFallback(a.Port, "ZONE_API_PORT", 8088)
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

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:        20,
			Maps:            []string{"prontera"},
			CommandQueue:    1024,
			MaxViewDistance: 21,
			DefaultMapSize:  300,
		},
		Data: DataConfig{Dir: "data"},
		EventBus: EventBusConfig{
			Stream:        "ZONE",
			Retention:     1,
			Buffer:        4096,
			CompressAbove: 4096,
		},
		Telemetry: TelemetryConfig{ServiceName: "ro-zone", SampleRatio: 0.1},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается взять путь из ENV ZONE_CONFIG, иначе возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ZONE_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет значения, без которых карты не запустятся
func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case len(s.Maps) == 0:
		return fmt.Errorf("не задано ни одной карты")
	case s.TickRate <= 0:
		return fmt.Errorf("tick_rate должен быть положительным: %d", s.TickRate)
	case s.CommandQueue <= 0:
		return fmt.Errorf("command_queue должен быть положительным: %d", s.CommandQueue)
	case s.MaxViewDistance <= 0:
		return fmt.Errorf("max_view_distance должен быть положительным: %d", s.MaxViewDistance)
	case s.TerrainDensity < 0 || s.TerrainDensity >= 1:
		return fmt.Errorf("terrain_density вне [0, 1): %v", s.TerrainDensity)
	}
	return nil
}
