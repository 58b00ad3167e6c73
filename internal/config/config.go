// Package config assembles runtime settings from defaults, a YAML file,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Backend submission
	BackendURL  string
	HTTPTimeout time.Duration
	UserAgent   string

	// Batch submission
	Concurrency int

	// Development backend
	ServeAddr         string
	AllowedOrigins    []string
	Proxies           []string
	RateLimitRPS      float64
	RateLimitBurst    int
	HostRateLimits    map[string]float64 // requests per second for individual hosts
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		BackendURL:        DefaultBackendURL,
		HTTPTimeout:       DefaultHTTPTimeout,
		UserAgent:         DefaultUserAgent,
		Concurrency:       DefaultConcurrency,
		ServeAddr:         DefaultServeAddr,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
		CacheTTL:          DefaultCacheTTL,
		CacheMaxSizeBytes: DefaultCacheMaxSizeBytes,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path, required := "", false
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path, required = f.Value.String(), true
		}
	}
	if path == "" {
		if p, err := DefaultConfigPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		fc, err := LoadFile(path, required)
		if err != nil {
			return nil, err
		}
		fc.apply(cfg)
	}

	applyEnv(cfg)

	if cmd != nil {
		if err := applyFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "PROXY"); v != "" {
		cfg.Proxies = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "SERVE_ADDR"); v != "" {
		cfg.ServeAddr = v
	}
}

func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("backend") {
		cfg.BackendURL, _ = flags.GetString("backend")
	}
	if changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if changed("proxy") {
		cfg.Proxies, _ = flags.GetStringSlice("proxy")
	}
	if changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", s, err)
		}
		cfg.HTTPTimeout = d
	}
	if changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if changed("addr") {
		cfg.ServeAddr, _ = flags.GetString("addr")
	}
	if changed("allow-origin") {
		cfg.AllowedOrigins, _ = flags.GetStringSlice("allow-origin")
	}
	if changed("json") {
		cfg.JSONLog, _ = flags.GetBool("json")
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.LogLevel = "debug"
	}
	if q, _ := flags.GetBool("quiet"); q {
		cfg.LogLevel = "error"
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
