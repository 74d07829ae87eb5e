// Package config centralizes how picktoss reads its settings and exposes them
// as strongly typed Go values. Values come from, in increasing priority: the
// built-in defaults, an optional YAML file, a .env file, and the process
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents runtime configuration for the CLI and the worker.
type Config struct {
	APIBaseURL  string        `yaml:"api_url" validate:"required,url"`
	HTTPTimeout time.Duration `yaml:"http_timeout" validate:"gt=0"`
	// RateLimit caps outgoing requests per second; zero disables the limiter.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	StoreDSN string `yaml:"store_dsn" validate:"required"`
	TokenKey string `yaml:"token_key" validate:"required"`

	MinContentLength int           `yaml:"min_content_length" validate:"gt=0"`
	MaxContentLength int           `yaml:"max_content_length" validate:"gtfield=MinContentLength"`
	ProgressDelay    time.Duration `yaml:"progress_delay" validate:"gte=0"`
	PollInterval     time.Duration `yaml:"poll_interval" validate:"gt=0"`
	QuizTime         string        `yaml:"quiz_time" validate:"required"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3Region    string `yaml:"s3_region"`
	S3UseSSL    bool   `yaml:"s3_use_ssl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
	WatchWorkers  int    `yaml:"watch_workers" validate:"gt=0"`
	WatchMaxRetry int    `yaml:"watch_max_retry" validate:"gte=0"`
}

const (
	defaultAPIBaseURL    = "http://localhost:8080"
	defaultHTTPTimeout   = 15 * time.Second
	defaultTokenKey      = "pick-toss-token"
	defaultMinContent    = 300
	defaultMaxContent    = 15000
	defaultProgressDelay = 2 * time.Second
	defaultPollInterval  = 3 * time.Second
	defaultQuizTime      = "08:00"
	defaultLogLevel      = "info"
	defaultRedisAddr     = "localhost:6379"
	defaultWatchWorkers  = 2
	defaultWatchRetry    = 20
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:       defaultAPIBaseURL,
		HTTPTimeout:      defaultHTTPTimeout,
		StoreDSN:         defaultStoreDSN(),
		TokenKey:         defaultTokenKey,
		MinContentLength: defaultMinContent,
		MaxContentLength: defaultMaxContent,
		ProgressDelay:    defaultProgressDelay,
		PollInterval:     defaultPollInterval,
		QuizTime:         defaultQuizTime,
		LogLevel:         defaultLogLevel,
		RedisAddr:        defaultRedisAddr,
		WatchWorkers:     defaultWatchWorkers,
		WatchMaxRetry:    defaultWatchRetry,
	}
}

// Load builds the configuration. A missing .env or YAML file is not an error;
// a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path := readEnv("PICKTOSS_CONFIG", ""); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = strings.TrimRight(readEnv("PICKTOSS_API_URL", c.APIBaseURL), "/")
	c.HTTPTimeout = parseDuration("PICKTOSS_HTTP_TIMEOUT", c.HTTPTimeout)
	c.RateLimit = parseFloat("PICKTOSS_RATE_LIMIT", c.RateLimit)
	c.StoreDSN = readEnv("PICKTOSS_STORE_DSN", c.StoreDSN)
	c.TokenKey = readEnv("PICKTOSS_TOKEN_KEY", c.TokenKey)
	c.MinContentLength = parseInt("PICKTOSS_MIN_CONTENT", c.MinContentLength)
	c.MaxContentLength = parseInt("PICKTOSS_MAX_CONTENT", c.MaxContentLength)
	c.ProgressDelay = parseDuration("PICKTOSS_PROGRESS_DELAY", c.ProgressDelay)
	c.PollInterval = parseDuration("PICKTOSS_POLL_INTERVAL", c.PollInterval)
	c.QuizTime = readEnv("PICKTOSS_QUIZ_TIME", c.QuizTime)
	c.LogLevel = strings.ToLower(readEnv("PICKTOSS_LOG_LEVEL", c.LogLevel))
	c.S3Endpoint = readEnv("PICKTOSS_S3_ENDPOINT", c.S3Endpoint)
	c.S3AccessKey = readEnv("PICKTOSS_S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = readEnv("PICKTOSS_S3_SECRET_KEY", c.S3SecretKey)
	c.S3Region = readEnv("PICKTOSS_S3_REGION", c.S3Region)
	c.S3UseSSL = parseBool("PICKTOSS_S3_USE_SSL", c.S3UseSSL)
	c.RedisAddr = readEnv("PICKTOSS_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = readEnv("PICKTOSS_REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = parseInt("PICKTOSS_REDIS_DB", c.RedisDB)
	c.WatchWorkers = parseInt("PICKTOSS_WORKERS", c.WatchWorkers)
	c.WatchMaxRetry = parseInt("PICKTOSS_WATCH_MAX_RETRY", c.WatchMaxRetry)
}

func defaultStoreDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "picktoss.db"
	}
	return filepath.Join(dir, "picktoss", "picktoss.db")
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// The parse helpers ignore malformed input and keep the previous value.

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	// time.ParseDuration understands inputs like "5m" or "30s".
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
