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

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	App       AppConfig
	Lifecycle LifecycleConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type RedisConfig struct {
	Backend   string // redis or memory
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFormat   string
	Version     string
}

// LifecycleConfig holds the simulated pipeline timings and the catalog source.
type LifecycleConfig struct {
	GenerationDelay time.Duration
	ResponseDelay   time.Duration
	FinalizeDelay   time.Duration
	TransientTTL    time.Duration
	JanitorSchedule string
	CatalogPath     string
	ResponseSeed    uint64
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Backend:   getEnv("STORE_BACKEND", "redis"),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "archstudio:"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Lifecycle: LifecycleConfig{
			GenerationDelay: getEnvAsDuration("GENERATION_DELAY", 2*time.Second),
			ResponseDelay:   getEnvAsDuration("RESPONSE_DELAY", 2500*time.Millisecond),
			FinalizeDelay:   getEnvAsDuration("FINALIZE_DELAY", 3*time.Second),
			TransientTTL:    getEnvAsDuration("TRANSIENT_TTL", 24*time.Hour),
			JanitorSchedule: getEnv("JANITOR_SCHEDULE", "0 */15 * * * *"),
			CatalogPath:     getEnv("CATALOG_PATH", ""),
			ResponseSeed:    uint64(getEnvAsInt("RESPONSE_SEED", 0)),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Redis.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be redis or memory, got %q", c.Redis.Backend)
	}

	if c.Lifecycle.GenerationDelay < 0 || c.Lifecycle.ResponseDelay < 0 || c.Lifecycle.FinalizeDelay < 0 {
		return fmt.Errorf("lifecycle delays must not be negative")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	out := make([]string, 0, 4)
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
