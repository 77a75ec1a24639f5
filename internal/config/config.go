package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	TWFY      TWFYConfig
	Postcodes PostcodesConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Mistral   MistralConfig
	Gemini    GeminiConfig
	Recaptcha RecaptchaConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Warmup    WarmupConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	GinMode         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
}

type TWFYConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type PostcodesConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig.Enabled=false runs with in-process caches and rate limits only.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type MistralConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type RecaptchaConfig struct {
	Secret   string
	MinScore float64
}

// RateLimitConfig holds per-IP request allowances within Window.
type RateLimitConfig struct {
	Representative int
	Tidy           int
	Window         time.Duration
}

type CacheConfig struct {
	ProfileTTL time.Duration
	LocalSize  int
	LocalTTL   time.Duration
}

type WarmupConfig struct {
	Enabled  bool
	Schedule string
	TopN     int
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("PORT", 5000),
			GinMode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TrustedProxies:  parseCommaSeparated(getEnv("TRUSTED_PROXIES", "")),
		},
		TWFY: TWFYConfig{
			APIKey:  getEnv("TWFY_API_KEY", ""),
			BaseURL: getEnv("TWFY_BASE_URL", "https://www.theyworkforyou.com/api"),
			Timeout: getEnvDuration("TWFY_TIMEOUT", 20*time.Second),
		},
		Postcodes: PostcodesConfig{
			BaseURL: getEnv("POSTCODES_BASE_URL", "https://api.postcodes.io"),
			Timeout: getEnvDuration("POSTCODES_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "dmmymp"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "dmmymp"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Mistral: MistralConfig{
			APIKey:  getEnv("MISTRAL_API_KEY", ""),
			Model:   getEnv("MISTRAL_MODEL", "mistral-small"),
			BaseURL: getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1/"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Recaptcha: RecaptchaConfig{
			Secret:   getEnv("RECAPTCHA_SECRET_KEY", ""),
			MinScore: getEnvFloat("RECAPTCHA_MIN_SCORE", 0.5),
		},
		RateLimit: RateLimitConfig{
			Representative: getEnvInt("RATE_LIMIT_REPRESENTATIVE", 10),
			Tidy:           getEnvInt("RATE_LIMIT_TIDY", 5),
			Window:         getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		},
		Cache: CacheConfig{
			ProfileTTL: getEnvDuration("PROFILE_CACHE_TTL", 6*time.Hour),
			LocalSize:  getEnvInt("PROFILE_LOCAL_CACHE_SIZE", 256),
			LocalTTL:   getEnvDuration("PROFILE_LOCAL_CACHE_TTL", 10*time.Minute),
		},
		Warmup: WarmupConfig{
			Enabled:  getEnvBool("WARMUP_ENABLED", true),
			Schedule: getEnv("WARMUP_SCHEDULE", "0 4 * * *"),
			TopN:     getEnvInt("WARMUP_TOP_N", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TWFY.APIKey == "" {
		return fmt.Errorf("TWFY_API_KEY is required")
	}
	if c.TWFY.BaseURL == "" {
		return fmt.Errorf("TWFY_BASE_URL is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Recaptcha.MinScore < 0 || c.Recaptcha.MinScore > 1 {
		return fmt.Errorf("RECAPTCHA_MIN_SCORE must be within [0,1]")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
