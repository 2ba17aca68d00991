package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	JobAPI    JobAPIConfig
	Server    ServerConfig
	Outcomes  OutcomesConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	S3        S3Config
	Telemetry TelemetryConfig
	Log       LogConfig
}

// JobAPIConfig удалённый сервис, который выполняет задачи
type JobAPIConfig struct {
	BaseURL        string        `env:"JOB_API_URL" envDefault:"http://localhost:8000/api"`
	RequestTimeout time.Duration `env:"JOB_API_REQUEST_TIMEOUT" envDefault:"30s"`
	PollInterval   time.Duration `env:"JOB_API_POLL_INTERVAL" envDefault:"2s"`
	// 0 означает без ограничения, опрос продолжается при любых сетевых ошибках
	MaxPollErrors int `env:"JOB_API_MAX_POLL_ERRORS" envDefault:"0"`
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// Сколько остановленная сессия остаётся доступной, прежде чем её забудут
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"10m"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// OutcomesConfig публикация итогов в очередь и чтение их истории из PostgreSQL
type OutcomesConfig struct {
	Enabled bool `env:"OUTCOMES_ENABLED" envDefault:"false"`
}

// DatabaseConfig хранилище истории итогов
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"jobwatch"`
	Password        string        `env:"DB_PASSWORD" envDefault:"secret"`
	Name            string        `env:"DB_NAME" envDefault:"jobwatch"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig брокер очереди итогов (asynq)
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// S3Config архив финальных снимков статуса
type S3Config struct {
	Enabled   bool   `env:"ARCHIVE_ENABLED" envDefault:"false"`
	Endpoint  string `env:"S3_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"S3_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"S3_SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"S3_BUCKET" envDefault:"job-outcomes"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
}

type TelemetryConfig struct {
	Enabled        bool   `env:"TELEMETRY_ENABLED" envDefault:"false"`
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"jobwatch"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"dev"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"http://127.0.0.1:4318"`
	Insecure       bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// json или console
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JobAPI.BaseURL == "" {
		return fmt.Errorf("JOB_API_URL is required")
	}
	if c.JobAPI.PollInterval <= 0 {
		return fmt.Errorf("JOB_API_POLL_INTERVAL must be positive, got %s", c.JobAPI.PollInterval)
	}
	if c.JobAPI.MaxPollErrors < 0 {
		return fmt.Errorf("JOB_API_MAX_POLL_ERRORS must not be negative, got %d", c.JobAPI.MaxPollErrors)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Server.SessionTTL)
	}
	return nil
}
