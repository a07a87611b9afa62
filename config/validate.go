package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScraper(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScraper() error {
	if err := validateHTTPURL(c.Scraper.BaseURL, "SOUNDCLOUD_BASE_URL"); err != nil {
		return err
	}
	if c.Scraper.Delay < 0 {
		return fmt.Errorf("SCRAPING_DELAY must not be negative, got %v", c.Scraper.Delay)
	}
	if c.Scraper.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT_REQUESTS must be at least 1, got %d", c.Scraper.MaxConcurrent)
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.Scraper.Timeout)
	}
	if c.Scraper.CacheDir != "" && c.Scraper.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when CACHE_DIR is set, got %v", c.Scraper.CacheTTL)
	}
	return nil
}

func (c *Config) validateAI() error {
	if c.AI.APIKey == "" {
		return nil
	}
	if err := validateHTTPURL(c.AI.BaseURL, "OPENAI_BASE_URL"); err != nil {
		return err
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %v", c.AI.Timeout)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitPeriod <= 0 {
		return fmt.Errorf("RATE_LIMIT_PERIOD must be positive, got %v", c.Server.RateLimitPeriod)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got '%s'", c.Logging.Format)
	}
}

func validateHTTPURL(raw, name string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https url, got '%s'", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got '%s'", name, raw)
	}
	return nil
}
