// Package config provides configuration management for completion runs
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for the completion engine
type Config struct {
	// Resource limits
	MaxCombinations int `json:"max_combinations" yaml:"max_combinations"` // Largest allowed combination space (0 = unlimited)

	// Parallel Processing Configuration
	ParallelGroupThreshold int `json:"parallel_group_threshold" yaml:"parallel_group_threshold"` // By-groups needed to build combinations on the worker pool (0 = always sequential)
	WorkerPoolSize         int `json:"worker_pool_size" yaml:"worker_pool_size"`                 // Number of worker goroutines (0 = auto-detect)

	// Logging Configuration
	VerboseLogging bool   `json:"verbose_logging" yaml:"verbose_logging"` // Enable debug logging
	LogFormat      string `json:"log_format" yaml:"log_format"`           // "text" or "json"
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultLogFormat = "text"
)

// Log formats accepted by LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Environment variables read by LoadFromEnv.
const (
	EnvMaxCombinations        = "TIDY_MAX_COMBINATIONS"
	EnvParallelGroupThreshold = "TIDY_PARALLEL_GROUP_THRESHOLD"
	EnvWorkerPoolSize         = "TIDY_WORKER_POOL_SIZE"
	EnvVerboseLogging         = "TIDY_VERBOSE_LOGGING"
	EnvLogFormat              = "TIDY_LOG_FORMAT"
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		MaxCombinations:        0, // Unlimited
		ParallelGroupThreshold: 0, // Sequential
		WorkerPoolSize:         0, // Auto-detect
		VerboseLogging:         false,
		LogFormat:              DefaultLogFormat,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.MaxCombinations < 0 {
		return fmt.Errorf("MaxCombinations must be non-negative, got %d", c.MaxCombinations)
	}

	if c.ParallelGroupThreshold < 0 {
		return fmt.Errorf("ParallelGroupThreshold must be non-negative, got %d", c.ParallelGroupThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("LogFormat must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.LogFormat)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	// Numeric zero values already mean "unlimited", "sequential" and
	// "auto-detect", so they are left alone.
	return c
}

// Workers returns the effective worker pool size.
func (c Config) Workers() int {
	if c.WorkerPoolSize > 0 {
		return c.WorkerPoolSize
	}
	return runtime.NumCPU()
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", filename, err)
	}
	return config, nil
}

// LoadFromEnv loads configuration from environment variables.
// Unparseable values are ignored.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv(EnvMaxCombinations); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxCombinations = parsed
		}
	}

	if val := os.Getenv(EnvParallelGroupThreshold); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelGroupThreshold = parsed
		}
	}

	if val := os.Getenv(EnvWorkerPoolSize); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv(EnvVerboseLogging); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	if val := os.Getenv(EnvLogFormat); val != "" {
		config.LogFormat = strings.ToLower(val)
	}

	return config
}
