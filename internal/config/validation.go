package config

import (
	"fmt"

	urlutil "github.com/law-makers/scrapejob/internal/utils/url"
)

func validate(c *Config) error {
	if err := urlutil.ValidateURL(c.BackendURL); err != nil {
		return fmt.Errorf("backend url: %w", err)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be > 0")
	}
	for host, rps := range c.HostRateLimits {
		if rps <= 0 {
			return fmt.Errorf("rate limit for host %q must be > 0", host)
		}
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	if c.Concurrency < 0 || c.Concurrency > DefaultMaxConcurrency {
		return fmt.Errorf("concurrency must be between 0 (auto) and %d", DefaultMaxConcurrency)
	}
	if c.ServeAddr == "" {
		return fmt.Errorf("serve address must not be empty")
	}
	return nil
}
