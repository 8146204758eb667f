// Package config provides configuration management for scmframe ensemble operations
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

// Config represents the global configuration for ensemble operations
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum timeseries count to trigger parallel interpolation
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)

	// Ensemble Defaults
	HierarchySeparator   string `json:"hierarchy_separator" yaml:"hierarchy_separator"`     // Separator between variable levels
	DefaultInterpolation string `json:"default_interpolation" yaml:"default_interpolation"` // linear, nearest, cubic or akima
	DefaultExtrapolation string `json:"default_extrapolation" yaml:"default_extrapolation"` // none, linear or constant
	LogIfEmpty           bool   `json:"log_if_empty" yaml:"log_if_empty"`                   // Warn when a filter selects nothing

	// Debugging Configuration
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Enable verbose logging
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Enable metrics collection
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	Architecture string
	OSType       string
}

// ConfigValidator validates and provides recommendations for configuration
type ConfigValidator struct {
	systemInfo SystemInfo
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultParallelThreshold  = 1000
	DefaultHierarchySeparator = "|"
	DefaultInterpolation      = "linear"
	DefaultExtrapolation      = "none"
	envPrefix                 = "SCMFRAME_"
)

var (
	interpolationNames = []string{"linear", "nearest", "cubic", "akima"}
	extrapolationNames = []string{"none", "linear", "constant"}
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect

		HierarchySeparator:   DefaultHierarchySeparator,
		DefaultInterpolation: DefaultInterpolation,
		DefaultExtrapolation: DefaultExtrapolation,
		LogIfEmpty:           true,

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.HierarchySeparator == "" {
		return fmt.Errorf("HierarchySeparator must not be empty")
	}

	if !oneOf(c.DefaultInterpolation, interpolationNames) {
		return fmt.Errorf("DefaultInterpolation must be one of %v, got %q", interpolationNames, c.DefaultInterpolation)
	}

	if !oneOf(c.DefaultExtrapolation, extrapolationNames) {
		return fmt.Errorf("DefaultExtrapolation must be one of %v, got %q", extrapolationNames, c.DefaultExtrapolation)
	}

	return nil
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.HierarchySeparator == "" {
		c.HierarchySeparator = defaults.HierarchySeparator
	}
	if c.DefaultInterpolation == "" {
		c.DefaultInterpolation = defaults.DefaultInterpolation
	}
	if c.DefaultExtrapolation == "" {
		c.DefaultExtrapolation = defaults.DefaultExtrapolation
	}

	// Boolean fields keep their explicit values; use NewConfig() for boolean defaults

	return c
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
	return config.WithDefaults(), nil
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

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from SCMFRAME_* environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	envInt("PARALLEL_THRESHOLD", &config.ParallelThreshold)
	envInt("WORKER_POOL_SIZE", &config.WorkerPoolSize)
	envString("HIERARCHY_SEPARATOR", &config.HierarchySeparator)
	envString("DEFAULT_INTERPOLATION", &config.DefaultInterpolation)
	envString("DEFAULT_EXTRAPOLATION", &config.DefaultExtrapolation)
	envBool("LOG_IF_EMPTY", &config.LogIfEmpty)
	envBool("VERBOSE_LOGGING", &config.VerboseLogging)
	envBool("METRICS_COLLECTION", &config.MetricsCollection)

	return config
}

func envInt(key string, dst *int) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			*dst = parsed
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(envPrefix + key); val != "" {
		*dst = val
	}
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		systemInfo: GetSystemInfo(),
	}
}

// Validate validates a configuration and provides recommendations
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	// Auto-adjust unset values
	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.CPUCount
		warnings = append(warnings,
			fmt.Sprintf("Auto-setting worker pool size to %d (CPU count)",
				validated.WorkerPoolSize))
	}

	return validated, warnings, nil
}
