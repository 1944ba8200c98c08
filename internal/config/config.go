// Package config loads storefront settings from the environment, an optional
// .env file and an optional storefront.yaml. Problems are collected and
// reported together.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	MaxAge time.Duration
}

// CacheConfig selects and configures the query cache store.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Config is the storefront configuration.
type Config struct {
	Port               string
	APIBaseURL         string
	EncryptionKey      string
	Env                string
	Cookie             CookieConfig
	BackendTimeout     time.Duration
	Cache              CacheConfig
	NotifyPollInterval time.Duration
	CORSAllowedOrigins []string
	LogLevel           string
}

// Production reports whether cookies must be Secure and gin runs in release mode.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Options tells Load where to look besides the process environment.
type Options struct {
	// EnvFiles are loaded with godotenv. Missing files are skipped. Empty
	// means ".env".
	EnvFiles []string
	// ConfigFile is an explicit YAML file. Empty searches for
	// storefront.yaml in the working directory.
	ConfigFile string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("app_env", "development")
	v.SetDefault("cookie_name", tokenstore.DefaultCookieName)
	v.SetDefault("cookie_domain", "")
	v.SetDefault("cookie_max_age", tokenstore.DefaultMaxAge.String())
	v.SetDefault("backend_timeout", "15s")
	v.SetDefault("cache_backend", CacheMemory)
	v.SetDefault("cache_ttl", "30s")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("notify_poll_interval", "60s")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("log_level", "info")
}

// Load reads the configuration. Every invalid or missing value is reported
// in the returned error at once.
func Load(opts Options) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	for _, key := range []string{"api_base_url", "encryption_key"} {
		_ = v.BindEnv(key)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var problems []string
	cfg := &Config{
		Port:          v.GetString("port"),
		APIBaseURL:    strings.TrimRight(required(v, "api_base_url", &problems), "/"),
		EncryptionKey: required(v, "encryption_key", &problems),
		Env:           v.GetString("app_env"),
		Cookie: CookieConfig{
			Name:   v.GetString("cookie_name"),
			Domain: v.GetString("cookie_domain"),
			MaxAge: duration(v, "cookie_max_age", &problems),
		},
		BackendTimeout: duration(v, "backend_timeout", &problems),
		Cache: CacheConfig{
			Backend:       strings.ToLower(v.GetString("cache_backend")),
			TTL:           duration(v, "cache_ttl", &problems),
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
		},
		NotifyPollInterval: duration(v, "notify_poll_interval", &problems),
		CORSAllowedOrigins: list(v.GetString("cors_allowed_origins")),
		LogLevel:           v.GetString("log_level"),
	}

	if cfg.APIBaseURL != "" {
		if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid value for API_BASE_URL: expected absolute URL, got '%s'", cfg.APIBaseURL))
		}
	}
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) < tokenstore.MinSecretLength {
		problems = append(problems, fmt.Sprintf("invalid value for ENCRYPTION_KEY: must be at least %d bytes", tokenstore.MinSecretLength))
	}
	switch cfg.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		problems = append(problems, fmt.Sprintf("invalid value for CACHE_BACKEND: expected memory or redis, got '%s'", cfg.Cache.Backend))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("config: %d problem(s):\n - %s", len(problems), strings.Join(problems, "\n - "))
	}
	return cfg, nil
}

func loadEnvFiles(files []string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			utils.Warn("Could not load env file", map[string]any{"file": file, "error": err.Error()})
		}
	}
}

func envName(key string) string {
	return strings.ToUpper(key)
}

func required(v *viper.Viper, key string, problems *[]string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		*problems = append(*problems, fmt.Sprintf("missing required environment variable: %s", envName(key)))
	}
	return value
}

func duration(v *viper.Viper, key string, problems *[]string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected positive duration string, got '%s'", envName(key), raw))
		return 0
	}
	return d
}

func list(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
