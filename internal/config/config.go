// Package config resolves runtime settings for the server and CLI from
// environment variables and an optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Environment variables read by Load.
const (
	EnvConfigFile      = "SECRETIMAGE_CONFIG"
	EnvLogLevel        = "SECRETIMAGE_LOG_LEVEL"
	EnvMaxRequestBytes = "SECRETIMAGE_MAX_REQUEST_BYTES"
	EnvFilterKernel    = "SECRETIMAGE_FILTER_KERNEL"
	EnvFilterSigma     = "SECRETIMAGE_FILTER_SIGMA"
	EnvUnsharpAmount   = "SECRETIMAGE_UNSHARP_AMOUNT"
)

// Config holds resolved settings.
type Config struct {
	// LogLevel is "info" or "debug". Debug enables codec diagnostics.
	LogLevel string `json:"log_level"`

	// MaxRequestBytes bounds a single JSON-RPC request line.
	MaxRequestBytes int `json:"max_request_bytes"`

	// Filter defaults used when a request omits them.
	FilterKernel  int     `json:"filter_kernel"`
	FilterSigma   float64 `json:"filter_sigma"`
	UnsharpAmount float64 `json:"unsharp_amount"`
}

// fileConfig mirrors Config with pointer fields so a partial file only
// overrides what it names.
type fileConfig struct {
	LogLevel        *string  `json:"log_level,omitempty"`
	MaxRequestBytes *int     `json:"max_request_bytes,omitempty"`
	FilterKernel    *int     `json:"filter_kernel,omitempty"`
	FilterSigma     *float64 `json:"filter_sigma,omitempty"`
	UnsharpAmount   *float64 `json:"unsharp_amount,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		MaxRequestBytes: 16 * 1024 * 1024,
		FilterKernel:    3,
		FilterSigma:     1.0,
		UnsharpAmount:   1.5,
	}
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Load starts from Default, applies the JSON file named by SECRETIMAGE_CONFIG
// if set, then applies individual environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if info.Size() > maxFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.MaxRequestBytes != nil {
		c.MaxRequestBytes = *fc.MaxRequestBytes
	}
	if fc.FilterKernel != nil {
		c.FilterKernel = *fc.FilterKernel
	}
	if fc.FilterSigma != nil {
		c.FilterSigma = *fc.FilterSigma
	}
	if fc.UnsharpAmount != nil {
		c.UnsharpAmount = *fc.UnsharpAmount
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvMaxRequestBytes); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRequestBytes, err)
		}
		c.MaxRequestBytes = n
	}
	if v := os.Getenv(EnvFilterKernel); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFilterKernel, err)
		}
		c.FilterKernel = n
	}
	if v := os.Getenv(EnvFilterSigma); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFilterSigma, err)
		}
		c.FilterSigma = f
	}
	if v := os.Getenv(EnvUnsharpAmount); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUnsharpAmount, err)
		}
		c.UnsharpAmount = f
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "info", "debug":
	default:
		return fmt.Errorf("log level must be \"info\" or \"debug\", got %q", c.LogLevel)
	}
	if c.MaxRequestBytes < 1024 {
		return fmt.Errorf("max request bytes must be at least 1024, got %d", c.MaxRequestBytes)
	}
	if c.FilterKernel < 1 || c.FilterKernel%2 == 0 {
		return fmt.Errorf("filter kernel must be odd and positive, got %d", c.FilterKernel)
	}
	if c.FilterSigma <= 0 {
		return fmt.Errorf("filter sigma must be positive, got %g", c.FilterSigma)
	}
	if c.UnsharpAmount < 0 {
		return fmt.Errorf("unsharp amount must not be negative, got %g", c.UnsharpAmount)
	}
	return nil
}
