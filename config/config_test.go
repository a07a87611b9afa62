package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with none of the recognized
// environment variables set.
func isolate(t *testing.T) string {
	t.Helper()
	names := []string{ConfigPathEnvVar}
	for name := range envMappings {
		names = append(names, strings.ToUpper(name))
	}
	for _, name := range names {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://soundcloud.com", cfg.Scraper.BaseURL)
	assert.Equal(t, time.Second, cfg.Scraper.DelayDuration())
	assert.Equal(t, 5, cfg.Scraper.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Scraper.TimeoutDuration())
	assert.Equal(t, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36", cfg.Scraper.UserAgent)
	assert.Empty(t, cfg.Scraper.CacheDir)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 20*time.Second, cfg.AI.TimeoutDuration())
	assert.Equal(t, "soundscout.db", cfg.Database.Path)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 100, cfg.Server.RateLimitRequests)
	assert.Equal(t, time.Hour, cfg.Server.RateLimitWindow())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("SOUNDCLOUD_BASE_URL", "http://localhost:9999")
	t.Setenv("SCRAPING_DELAY", "0.25")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "2")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_HOSTS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED", "ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.Scraper.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.DelayDuration())
	assert.Equal(t, 2, cfg.Scraper.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Scraper.TimeoutDuration())
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestBrowserTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("BROWSER_TIMEOUT", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.Scraper.TimeoutDuration())

	t.Setenv("REQUEST_TIMEOUT", "7")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Scraper.TimeoutDuration())
}

func TestFileAndDotenv(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "soundscout.yaml"), []byte(`
scraper:
  delay: 2
  max_concurrent: 3
server:
  cors_origins:
    - https://from.file
`), 0o644))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Scraper.DelayDuration())
	assert.Equal(t, 3, cfg.Scraper.MaxConcurrent)
	assert.Equal(t, []string{"https://from.file"}, cfg.Server.CORSOrigins)

	// The environment wins over the file.
	t.Setenv("MAX_CONCURRENT_REQUESTS", "8")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Scraper.MaxConcurrent)
	os.Unsetenv("MAX_CONCURRENT_REQUESTS")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_PATH=/tmp/from-dotenv.db\n"), 0o644))
	t.Setenv("DATABASE_PATH", "")
	os.Unsetenv("DATABASE_PATH")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Database.Path)
}

func TestExplicitConfigPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: other.db\n"), 0o644))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "other.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"empty base url":    func(c *Config) { c.Scraper.BaseURL = "" },
		"relative base url": func(c *Config) { c.Scraper.BaseURL = "soundcloud.com" },
		"negative delay":    func(c *Config) { c.Scraper.Delay = -1 },
		"no concurrency":    func(c *Config) { c.Scraper.MaxConcurrent = 0 },
		"zero timeout":      func(c *Config) { c.Scraper.Timeout = 0 },
		"port too big":      func(c *Config) { c.Server.Port = 70000 },
		"port zero":         func(c *Config) { c.Server.Port = 0 },
		"bad log format":    func(c *Config) { c.Logging.Format = "xml" },
		"bad ai url": func(c *Config) {
			c.AI.APIKey = "sk"
			c.AI.BaseURL = "ftp://x"
		},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			require.NoError(t, cfg.Validate())
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestInvalidEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("MAX_CONCURRENT_REQUESTS", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "MAX_CONCURRENT_REQUESTS")
}
