package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment   string
	LogLevel      string
	HTTPAddr      string
	Storage       string
	DBDSN         string
	MigrationsDir string // empty uses the embedded migrations

	LockWait time.Duration
	LockTTL  time.Duration

	RedisAddr     string
	RedisPassword string

	TelegramToken string

	KafkaBrokers string
	KafkaTopic   string

	NotifyQueueSize int
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:   getenv("ENV"),
		LogLevel:      getenv("LOG_LEVEL"),
		HTTPAddr:      getenv("HTTP_ADDR"),
		Storage:       strings.ToLower(getenv("STORAGE")),
		DBDSN:         getenv("DB_DSN"),
		MigrationsDir: getenv("MIGRATIONS_DIR"),
		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		KafkaBrokers:  getenv("KAFKA_BROKERS"),
		KafkaTopic:    getenv("KAFKA_TOPIC"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "booking-notifications"
	}

	var err error
	if cfg.LockWait, err = durationOr(getenv("LOCK_WAIT"), 2*time.Second); err != nil {
		return nil, fmt.Errorf("LOCK_WAIT: %w", err)
	}
	if cfg.LockTTL, err = durationOr(getenv("LOCK_TTL"), 10*time.Second); err != nil {
		return nil, fmt.Errorf("LOCK_TTL: %w", err)
	}
	if cfg.NotifyQueueSize, err = intOr(getenv("NOTIFY_QUEUE_SIZE"), 256); err != nil {
		return nil, fmt.Errorf("NOTIFY_QUEUE_SIZE: %w", err)
	}

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}

	return cfg, nil
}

func durationOr(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

func intOr(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
