package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultEnvFile           = ".env"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultBrowserTimeout    = 45 * time.Second
	DefaultRateLimitRPS      = 1.0
	DefaultRateLimitBurst    = 2
	DefaultImageRateLimitRPS = 5.0
	DefaultMaxRetries        = 3
	DefaultBrowserPoolSize   = 2
	MaxBrowserPoolSize       = 8
	DefaultBrowserHeadless   = true
	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxSizeBytes = 64 * 1024 * 1024 // 64MB
	DefaultScriptTimeout     = 500 * time.Millisecond
	DefaultRespectRobots     = false
	DefaultOutputDir         = "."
	DefaultMode              = "auto"
	DefaultMCPAddr           = ":8080"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ECOMATE_"
