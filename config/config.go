// Package config loads soundscout's configuration from defaults, an
// optional YAML file, and the environment, in increasing precedence.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the YAML config file to load.
const ConfigPathEnvVar = "SOUNDSCOUT_CONFIG"

var DefaultConfigPaths = []string{"soundscout.yaml", "soundscout.yml"}

type Config struct {
	Scraper  ScraperConfig  `koanf:"scraper"`
	AI       AIConfig       `koanf:"ai"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ScraperConfig times are in seconds.
type ScraperConfig struct {
	BaseURL       string  `koanf:"base_url"`
	Delay         float64 `koanf:"delay"`
	MaxConcurrent int     `koanf:"max_concurrent"`
	Timeout       float64 `koanf:"timeout"`
	UserAgent     string  `koanf:"user_agent"`
	CacheDir      string  `koanf:"cache_dir"`
	CacheTTL      float64 `koanf:"cache_ttl"`
}

func (c ScraperConfig) DelayDuration() time.Duration    { return seconds(c.Delay) }
func (c ScraperConfig) TimeoutDuration() time.Duration  { return seconds(c.Timeout) }
func (c ScraperConfig) CacheTTLDuration() time.Duration { return seconds(c.CacheTTL) }

type AIConfig struct {
	APIKey  string  `koanf:"api_key"`
	BaseURL string  `koanf:"base_url"`
	Model   string  `koanf:"model"`
	Timeout float64 `koanf:"timeout"`
}

func (c AIConfig) TimeoutDuration() time.Duration { return seconds(c.Timeout) }

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type ServerConfig struct {
	Host              string   `koanf:"host"`
	Port              int      `koanf:"port"`
	CORSOrigins       []string `koanf:"cors_origins"`
	RateLimitRequests int      `koanf:"rate_limit_requests"`
	RateLimitPeriod   float64  `koanf:"rate_limit_period"`
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ServerConfig) RateLimitWindow() time.Duration { return seconds(c.RateLimitPeriod) }

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func defaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			BaseURL:       "https://soundcloud.com",
			Delay:         1.0,
			MaxConcurrent: 5,
			Timeout:       30,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			CacheTTL:      3600,
		},
		AI: AIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 20,
		},
		Database: DatabaseConfig{
			Path: "soundscout.db",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5000"},
			RateLimitRequests: 100,
			RateLimitPeriod:   3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a .env file if one exists, then layers defaults, the config
// file, and the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := applyLegacyTimeout(k); err != nil {
		return nil, err
	}
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"soundcloud_base_url":     "scraper.base_url",
	"scraping_delay":          "scraper.delay",
	"max_concurrent_requests": "scraper.max_concurrent",
	"request_timeout":         "scraper.timeout",
	"browser_timeout":         "scraper.browser_timeout",
	"user_agent":              "scraper.user_agent",
	"cache_dir":               "scraper.cache_dir",
	"cache_ttl":               "scraper.cache_ttl",

	"openai_api_key":  "ai.api_key",
	"openai_base_url": "ai.base_url",
	"openai_model":    "ai.model",
	"ai_timeout":      "ai.timeout",

	"database_path": "database.path",

	"host":                "server.host",
	"port":                "server.port",
	"allowed_hosts":       "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_period":   "server.rate_limit_period",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransformFunc maps environment variable names to config paths. Names
// it doesn't know map to "", which the env provider skips.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// applyLegacyTimeout honors BROWSER_TIMEOUT when REQUEST_TIMEOUT isn't set.
func applyLegacyTimeout(k *koanf.Koanf) error {
	if !k.Exists("scraper.browser_timeout") {
		return nil
	}
	if _, ok := os.LookupEnv("REQUEST_TIMEOUT"); !ok {
		if err := k.Set("scraper.timeout", k.Get("scraper.browser_timeout")); err != nil {
			return fmt.Errorf("failed to set scraper.timeout: %w", err)
		}
	}
	k.Delete("scraper.browser_timeout")
	return nil
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated values from the environment.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		trimmed := []string{}
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
