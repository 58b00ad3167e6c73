package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultBackendURL        = "http://localhost:3000/scrap/"
	DefaultUserAgent         = "scrapejob/1.0 (https://github.com/law-makers/scrapejob)"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultRateLimitRPS      = 2.0
	DefaultRateLimitBurst    = 5
	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxSizeBytes = 50 * 1024 * 1024 // 50MB
	DefaultConcurrency       = 0                // auto
	DefaultMaxConcurrency    = 64
	DefaultServeAddr         = ":3000"
	DefaultConfigDir         = ".scrapejob"
	DefaultConfigFile        = "config.yaml"
	EnvPrefix                = "SCRAPEJOB_"
)
