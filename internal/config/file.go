package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the structure of the YAML configuration file.
// Zero values leave the corresponding setting untouched.
type FileConfig struct {
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`

	Backend struct {
		URL       string        `yaml:"url"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"backend"`

	Batch struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"batch"`

	Serve struct {
		Addr           string             `yaml:"addr"`
		AllowedOrigins []string           `yaml:"allowed_origins"`
		Proxies        []string           `yaml:"proxies"`
		RateLimitRPS   float64            `yaml:"rate_limit_rps"`
		RateLimitBurst int                `yaml:"rate_limit_burst"`
		HostRateLimits map[string]float64 `yaml:"host_rate_limits"`
		CacheTTL       time.Duration      `yaml:"cache_ttl"`
		CacheMaxBytes  int64              `yaml:"cache_max_bytes"`
	} `yaml:"serve"`
}

// DefaultConfigPath returns ~/.scrapejob/config.yaml
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFile), nil
}

// LoadFile reads a configuration file. A missing file yields nil without error
// unless required is set.
func LoadFile(path string, required bool) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc == nil {
		return
	}
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.JSONLog {
		cfg.JSONLog = true
	}
	setString(&cfg.BackendURL, fc.Backend.URL)
	setString(&cfg.UserAgent, fc.Backend.UserAgent)
	if fc.Backend.Timeout > 0 {
		cfg.HTTPTimeout = fc.Backend.Timeout
	}
	if fc.Batch.Concurrency > 0 {
		cfg.Concurrency = fc.Batch.Concurrency
	}
	setString(&cfg.ServeAddr, fc.Serve.Addr)
	if len(fc.Serve.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.Serve.AllowedOrigins
	}
	if len(fc.Serve.Proxies) > 0 {
		cfg.Proxies = fc.Serve.Proxies
	}
	if fc.Serve.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.Serve.RateLimitRPS
	}
	if fc.Serve.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.Serve.RateLimitBurst
	}
	if fc.Serve.CacheTTL > 0 {
		cfg.CacheTTL = fc.Serve.CacheTTL
	}
	if fc.Serve.CacheMaxBytes > 0 {
		cfg.CacheMaxSizeBytes = fc.Serve.CacheMaxBytes
	}
	if len(fc.Serve.HostRateLimits) > 0 {
		cfg.HostRateLimits = fc.Serve.HostRateLimits
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
