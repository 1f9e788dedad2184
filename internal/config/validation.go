package config

import "fmt"

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var modes = map[string]bool{"auto": true, "static": true, "browser": true}

func validate(c *Config) error {
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("log level must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.BrowserTimeout <= 0 {
		return fmt.Errorf("browser timeout must be > 0")
	}
	if c.RateLimitRPS <= 0 || c.ImageRateLimitRPS <= 0 {
		return fmt.Errorf("rate limits must be > 0")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be > 0")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be > 0")
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > MaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", MaxBrowserPoolSize)
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("script timeout must be > 0")
	}
	if !modes[c.Mode] {
		return fmt.Errorf("mode must be one of auto, static, browser (got %q)", c.Mode)
	}
	return nil
}
