package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Service names, used to pick per-service defaults
const (
	ServiceLineProvider = "line-provider"
	ServiceBetMaker     = "bet-maker"
)

// Event store backends supported by the line provider
const (
	EventStoreMemory   = "memory"
	EventStorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	ServiceName string

	// HTTP configuration
	ListenAddr  string
	MetricsAddr string

	// Database configuration
	DatabaseURL    string
	EventStore     string // line provider: "memory" or "postgres"
	StorageTimeout time.Duration

	// Line provider access (bet maker)
	LineProviderURL      string
	RequestTimeout       time.Duration
	MaxConnectionRetries int
	PollInterval         time.Duration

	// Messaging; optional, the poller covers a missing broker
	KafkaBrokers []string
	KafkaGroupID string

	// Cache; optional
	RedisAddr     string
	EventCacheTTL time.Duration

	// Environment: "development", "production" or "test"
	Environment string
}

// Load reads the configuration for the named service from environment
// variables. A .env file in the working directory is honored when present.
func Load(service string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		ServiceName: service,

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Line provider access
		LineProviderURL: getEnv("LINE_PROVIDER_URL", "http://localhost:8080"),

		// Messaging and cache
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "bet-maker"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		// Environment
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	switch service {
	case ServiceLineProvider:
		config.ListenAddr = getEnv("LISTEN_ADDR", ":8080")
		config.MetricsAddr = getEnv("METRICS_ADDR", ":9095")
		config.EventStore = getEnv("EVENT_STORE", EventStoreMemory)
	case ServiceBetMaker:
		config.ListenAddr = getEnv("LISTEN_ADDR", ":8081")
		config.MetricsAddr = getEnv("METRICS_ADDR", ":9096")
		config.EventStore = EventStorePostgres
	default:
		return nil, fmt.Errorf("unknown service %q", service)
	}

	storageTimeout, err := intEnv("STORAGE_TIMEOUT", 5, 1, 60)
	if err != nil {
		return nil, err
	}
	config.StorageTimeout = time.Duration(storageTimeout) * time.Second

	requestTimeout, err := intEnv("API_REQUEST_TIMEOUT", 30, 1, 60)
	if err != nil {
		return nil, err
	}
	config.RequestTimeout = time.Duration(requestTimeout) * time.Second

	retries, err := intEnv("MAX_CONNECTION_RETRIES", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	config.MaxConnectionRetries = retries

	pollInterval, err := intEnv("EVENT_POLL_INTERVAL", 30, 5, 300)
	if err != nil {
		return nil, err
	}
	config.PollInterval = time.Duration(pollInterval) * time.Second

	cacheTTL, err := intEnv("EVENT_CACHE_TTL", 5, 1, 300)
	if err != nil {
		return nil, err
	}
	config.EventCacheTTL = time.Duration(cacheTTL) * time.Second

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				config.KafkaBrokers = append(config.KafkaBrokers, broker)
			}
		}
	}

	if config.EventStore != EventStoreMemory && config.EventStore != EventStorePostgres {
		return nil, fmt.Errorf("EVENT_STORE must be %q or %q", EventStoreMemory, EventStorePostgres)
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.EventStore == EventStorePostgres && config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if service == ServiceBetMaker && config.LineProviderURL == "" {
			return nil, fmt.Errorf("LINE_PROVIDER_URL is required")
		}
	}

	return config, nil
}

// getEnv returns the value of the environment variable or the default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// intEnv parses an integer environment variable and enforces its bounds
func intEnv(key string, def, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return v, nil
}
