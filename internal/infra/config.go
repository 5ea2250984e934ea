package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Status record store. DATABASE_URL wins; REDIS_ADDR is the fallback;
	// with neither set the service keeps records in memory.
	DatabaseURL   string
	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Generation provider.
	ProviderAPIKey     string
	ProviderBaseURL    string
	ProviderRatePerSec float64

	// Poll budgets. Video jobs take far longer than image jobs.
	ImagePollAttempts int
	ImagePollInterval time.Duration
	VideoPollAttempts int
	VideoPollInterval time.Duration
	RetryBudget       int

	// Remote media store. Supabase settings win; otherwise assets land on
	// the local filesystem and are served from StorageBaseURL.
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
	StoragePath        string
	StorageBaseURL     string

	// Asset relocation.
	DownloadTimeout time.Duration
	MaxRedirects    int

	GeoIPDBPath    string
	DefaultLocale  string
	AllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	MaxConcurrentGen int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),

		ProviderAPIKey:     os.Getenv("PROVIDER_API_KEY"),
		ProviderBaseURL:    getEnv("PROVIDER_BASE_URL", "https://api.renderforge.dev/v1"),
		ProviderRatePerSec: getEnvFloat("PROVIDER_RATE_PER_SECOND", 5),

		ImagePollAttempts: getEnvInt("IMAGE_POLL_ATTEMPTS", 40),
		ImagePollInterval: time.Second * time.Duration(getEnvInt("IMAGE_POLL_INTERVAL_SECONDS", 5)),
		VideoPollAttempts: getEnvInt("VIDEO_POLL_ATTEMPTS", 120),
		VideoPollInterval: time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 5)),
		RetryBudget:       getEnvInt("GENERATION_RETRY_BUDGET", 1),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "generated"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		DownloadTimeout: time.Second * time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 30)),
		MaxRedirects:    getEnvInt("DOWNLOAD_MAX_REDIRECTS", 5),

		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 630)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxConcurrentGen: getEnvInt("MAX_CONCURRENT_GENERATIONS", 4),
	}

	if cfg.ProviderAPIKey == "" {
		return nil, fmt.Errorf("PROVIDER_API_KEY is required")
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey == "" {
		return nil, fmt.Errorf("SUPABASE_SERVICE_KEY is required when SUPABASE_URL is set")
	}
	if cfg.ImagePollAttempts <= 0 || cfg.VideoPollAttempts <= 0 {
		return nil, fmt.Errorf("poll attempt budgets must be positive")
	}
	if cfg.RetryBudget < 0 {
		return nil, fmt.Errorf("GENERATION_RETRY_BUDGET must not be negative")
	}

	return cfg, nil
}

// RedisAddrHostPort returns the configured Redis address.
func (c *Config) RedisAddrHostPort() string {
	return c.RedisAddr
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
