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
	ServerPort                string
	ServerReadHeaderTimeout   time.Duration
	ServerWriteTimeout        time.Duration
	ServerIdleTimeout         time.Duration
	RequestTimeout            time.Duration
	DatabaseURL               string
	DBMaxConns                int32
	DBMinConns                int32
	BlobRoot                  string
	BlobSigningSecret         string
	MaxUploadSize             int64
	SessionSecret             string
	SessionTTL                time.Duration
	SessionRevalidateInterval time.Duration
	SessionCookieSecure       bool
	SessionSweepSchedule      string
	CORSOrigins               []string
	RateLimitRPM              int
	AuthRateLimitRPM          int
	NameCacheSize             int
	NameCacheTTL              time.Duration
	RedisURL                  string
	StorageConfigFile         string
	Buckets                   []BucketConfig
	LogFormat                 string
	LogLevel                  string
	BootstrapEmail            string
	BootstrapPassword         string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:                getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout:   getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:        getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:         getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:            getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:               strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:                int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:                int32(getInt("DB_MIN_CONNS", 1)),
		BlobRoot:                  getEnv("BLOB_ROOT", "./data/blobs"),
		BlobSigningSecret:         strings.TrimSpace(os.Getenv("BLOB_SIGNING_SECRET")),
		MaxUploadSize:             getInt64("MAX_UPLOAD_SIZE", 52428800),
		SessionSecret:             strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTL:                getDuration("SESSION_TTL", 12*time.Hour),
		SessionRevalidateInterval: getDuration("SESSION_REVALIDATE_INTERVAL", 5*time.Minute),
		SessionCookieSecure:       getBool("SESSION_COOKIE_SECURE", true),
		SessionSweepSchedule:      getEnv("SESSION_SWEEP_SCHEDULE", "@every 1h"),
		CORSOrigins:               splitCSV(getEnv("CORS_ORIGINS", "")),
		RateLimitRPM:              getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:          getInt("AUTH_RATE_LIMIT_RPM", 10),
		NameCacheSize:             getInt("NAME_CACHE_SIZE", 1024),
		NameCacheTTL:              getDuration("NAME_CACHE_TTL", 10*time.Minute),
		RedisURL:                  strings.TrimSpace(os.Getenv("REDIS_URL")),
		StorageConfigFile:         strings.TrimSpace(os.Getenv("STORAGE_CONFIG_FILE")),
		LogFormat:                 strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		LogLevel:                  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		BootstrapEmail:            strings.TrimSpace(os.Getenv("BOOTSTRAP_SUPERADMIN_EMAIL")),
		BootstrapPassword:         strings.TrimSpace(os.Getenv("BOOTSTRAP_SUPERADMIN_PASSWORD")),
	}

	buckets, err := LoadBuckets(cfg.StorageConfigFile, cfg.MaxUploadSize)
	if err != nil {
		return nil, err
	}
	cfg.Buckets = buckets

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	if len(c.BlobSigningSecret) < 32 {
		return fmt.Errorf("BLOB_SIGNING_SECRET must be at least 32 characters")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.BlobRoot) == "" {
		return fmt.Errorf("BLOB_ROOT cannot be empty")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.SessionRevalidateInterval <= 0 || c.SessionRevalidateInterval > c.SessionTTL {
		return fmt.Errorf("SESSION_REVALIDATE_INTERVAL must be positive and not exceed SESSION_TTL")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS are inconsistent")
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	if (c.BootstrapEmail == "") != (c.BootstrapPassword == "") {
		return fmt.Errorf("BOOTSTRAP_SUPERADMIN_EMAIL and BOOTSTRAP_SUPERADMIN_PASSWORD must be set together")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
