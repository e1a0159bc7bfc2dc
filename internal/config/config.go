package config

import (
	"errors"
	"fmt"
	"os"

	"avtoprokat/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Notify     NotifyConfig     `yaml:"notify"`
	Exports    ExportConfig     `yaml:"exports"`
	Cars       []models.Car     `yaml:"cars"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig tunes the workflow and the background status refresher.
type BookingConfig struct {
	DraftTTLSeconds        int `yaml:"draft_ttl_seconds"`
	RateLimitRequests      int `yaml:"rate_limit_requests"`
	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds"`
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds"`
}

type NotifyConfig struct {
	TelegramToken  string  `yaml:"telegram_token"`
	ManagerChatIDs []int64 `yaml:"manager_chat_ids"`
	Debug          bool    `yaml:"debug"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env подхватывается, если лежит рядом; его отсутствие не ошибка
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys configured")
	}

	return ValidateCars(c.Cars)
}

// ValidateCars проверяет каталог на нулевые и дублирующиеся идентификаторы.
func ValidateCars(cars []models.Car) error {
	carIDs := make(map[int64]bool)
	for _, car := range cars {
		if car.ID == 0 {
			return fmt.Errorf("car '%s' has invalid ID 0", car.Name)
		}
		if carIDs[car.ID] {
			return fmt.Errorf("duplicate car ID found: %d", car.ID)
		}
		carIDs[car.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Booking.DraftTTLSeconds == 0 {
		c.Booking.DraftTTLSeconds = models.DefaultDraftTTL
	}
	if c.Booking.RateLimitRequests == 0 {
		c.Booking.RateLimitRequests = models.RateLimitRequests
	}
	if c.Booking.RateLimitWindowSeconds == 0 {
		c.Booking.RateLimitWindowSeconds = models.RateLimitWindow
	}
	if c.Booking.RefreshIntervalSeconds == 0 {
		c.Booking.RefreshIntervalSeconds = models.StatusRefreshInterval
	}
}
