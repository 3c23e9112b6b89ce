// Package config loads application configuration from environment
// variables with sane defaults for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment constants.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the root application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	SMS       SMSConfig
	Tracking  TrackingConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration. Redis backs the job queue and
// the analytics cache.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// CORSConfig holds CORS configuration for the admin API.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// RateLimitConfig holds rate limiting configuration for the public
// tracking endpoints.
type RateLimitConfig struct {
	Enabled         bool
	RequestsPerSec  float64
	Burst           int
	CleanupInterval time.Duration
}

// SMTPConfig holds lure email delivery configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
	Timeout  time.Duration
	Enabled  bool
}

// SMSConfig holds SMS gateway configuration.
type SMSConfig struct {
	GatewayURL string
	APIKey     string
	From       string
	Timeout    time.Duration
	Enabled    bool
}

// TrackingConfig holds the public-facing tracking configuration.
type TrackingConfig struct {
	// BaseURL is the externally reachable origin embedded in lure
	// links and tracking pixels, e.g. "https://portal.example.com".
	BaseURL string
	// DefaultRedirect is where the click endpoint sends the browser
	// after recording the click.
	DefaultRedirect string
}

// WorkerConfig holds the asynq worker configuration.
type WorkerConfig struct {
	Concurrency  int
	QueueDefault int
	QueueLow     int
}

// SchedulerConfig holds the cron scheduler configuration.
type SchedulerConfig struct {
	Enabled bool
	// CampaignSpec is the cron spec for starting due scheduled
	// campaigns.
	CampaignSpec string
}

// Load builds the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "phishsim"),
			Env:   getEnv("APP_ENV", EnvDevelopment),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 1<<20),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "phishsim"),
			Password:        getEnv("DB_PASSWORD", "secret"),
			Name:            getEnv("DB_NAME", "phishsim"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvDuration("REDIS_CACHE_TTL", 60*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}),
			MaxAge:         getEnvInt("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSec:  getEnvFloat("RATE_LIMIT_RPS", 20),
			Burst:           getEnvInt("RATE_LIMIT_BURST", 40),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "it-support@example.com"),
			FromName: getEnv("SMTP_FROM_NAME", "IT Support"),
			UseTLS:   getEnvBool("SMTP_USE_TLS", true),
			Timeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),
			Enabled:  getEnvBool("SMTP_ENABLED", false),
		},
		SMS: SMSConfig{
			GatewayURL: getEnv("SMS_GATEWAY_URL", ""),
			APIKey:     getEnv("SMS_API_KEY", ""),
			From:       getEnv("SMS_FROM", "IT-Support"),
			Timeout:    getEnvDuration("SMS_TIMEOUT", 15*time.Second),
			Enabled:    getEnvBool("SMS_ENABLED", false),
		},
		Tracking: TrackingConfig{
			BaseURL:         getEnv("TRACKING_BASE_URL", "http://localhost:8080"),
			DefaultRedirect: getEnv("TRACKING_DEFAULT_REDIRECT", "https://www.example.com"),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvInt("WORKER_CONCURRENCY", 10),
			QueueDefault: getEnvInt("WORKER_QUEUE_DEFAULT", 6),
			QueueLow:     getEnvInt("WORKER_QUEUE_LOW", 2),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getEnvBool("SCHEDULER_ENABLED", true),
			CampaignSpec: getEnv("SCHEDULER_CAMPAIGN_SPEC", "* * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Tracking.BaseURL == "" {
		return fmt.Errorf("tracking base url is required")
	}
	if strings.HasSuffix(c.Tracking.BaseURL, "/") {
		c.Tracking.BaseURL = strings.TrimRight(c.Tracking.BaseURL, "/")
	}
	if c.IsProduction() {
		if c.SMTP.Enabled && c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when SMTP is enabled")
		}
		if c.SMS.Enabled && c.SMS.GatewayURL == "" {
			return fmt.Errorf("SMS_GATEWAY_URL is required when SMS is enabled")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerAddr returns the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if the application runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// IsDevelopment returns true if the application runs in development.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == EnvDevelopment
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
