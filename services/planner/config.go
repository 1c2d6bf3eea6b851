// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// Duration wraps time.Duration so config files can say "30s" or "2m"
// instead of nanosecond integers.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config holds planner service configuration.
//
// Values can be populated from a YAML file, environment variables, or
// programmatically for testing. Zero values get defaults applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 5000.
	Port int `json:"port" yaml:"port"`

	// GinMode sets the Gin framework mode: "debug", "release" or "test".
	// Default: "release".
	GinMode string `json:"gin_mode" yaml:"gin_mode"`

	// DataDir is the directory holding soil_samples.csv, market_history.csv
	// and the optional regions.json. Default: "./data".
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// WatchData enables the fsnotify hot-reload watcher on DataDir.
	WatchData bool `json:"watch_data" yaml:"watch_data"`

	// AllowedOrigins restricts CORS. Empty means allow any origin, matching
	// the open browser frontend the service was built for.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// OptimizeRPS is the per-client token refill rate on the optimize
	// endpoints. Default: 1.
	OptimizeRPS float64 `json:"optimize_rps" yaml:"optimize_rps"`

	// OptimizeBurst is the per-client token bucket size. Default: 3.
	OptimizeBurst int `json:"optimize_burst" yaml:"optimize_burst"`

	// OptimizeTimeout bounds a single optimize run. Runs cut off by the
	// deadline return a partial plan with HTTP 408. Default: 30s.
	OptimizeTimeout Duration `json:"optimize_timeout" yaml:"optimize_timeout"`

	// OTelEndpoint is the OTLP/gRPC collector endpoint. Empty means export
	// spans to stdout instead.
	OTelEndpoint string `json:"otel_endpoint" yaml:"otel_endpoint"`

	// EnableMetrics enables the Prometheus /metrics endpoint.
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics"`

	// Annealing is the base optimizer configuration; request bodies may
	// override individual keys per run.
	Annealing quantum.Config `json:"annealing" yaml:"annealing"`
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() Config {
	return Config{
		Port:            5000,
		GinMode:         "release",
		DataDir:         "./data",
		WatchData:       true,
		OptimizeRPS:     1,
		OptimizeBurst:   3,
		OptimizeTimeout: Duration(30 * time.Second),
		EnableMetrics:   true,
		Annealing:       quantum.DefaultConfig(),
	}
}

// LoadConfig loads service configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to a YAML/JSON config file (optional, can be empty).
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is invalid, or validation fails.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	ApplyEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

// ApplyEnv overlays AGRIQ_* environment variables on config. Unparseable
// values are ignored so a bad env var never breaks startup. The annealing
// block is layered by quantum.ApplyEnv under the AGRIQ_SA_ prefix.
func ApplyEnv(config *Config) {
	if v := os.Getenv("AGRIQ_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Port = i
		}
	}
	if v := os.Getenv("AGRIQ_GIN_MODE"); v != "" {
		config.GinMode = v
	}
	if v := os.Getenv("AGRIQ_DATA_DIR"); v != "" {
		config.DataDir = v
	}
	if v := os.Getenv("AGRIQ_WATCH_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.WatchData = b
		}
	}
	if v := os.Getenv("AGRIQ_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.AllowedOrigins = origins
	}
	if v := os.Getenv("AGRIQ_OPTIMIZE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.OptimizeRPS = f
		}
	}
	if v := os.Getenv("AGRIQ_OPTIMIZE_BURST"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.OptimizeBurst = i
		}
	}
	if v := os.Getenv("AGRIQ_OPTIMIZE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.OptimizeTimeout = Duration(d)
		}
	}
	if v := os.Getenv("AGRIQ_OTEL_ENDPOINT"); v != "" {
		config.OTelEndpoint = v
	}
	if v := os.Getenv("AGRIQ_ENABLE_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.EnableMetrics = b
		}
	}

	quantum.ApplyEnv(&config.Annealing)
}

// Validate checks the service configuration, including the annealing block.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in [1,65535], got %d", c.Port)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin_mode must be debug, release or test, got %q", c.GinMode)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.OptimizeRPS <= 0 {
		return fmt.Errorf("optimize_rps must be > 0, got %v", c.OptimizeRPS)
	}
	if c.OptimizeBurst < 1 {
		return fmt.Errorf("optimize_burst must be >= 1, got %d", c.OptimizeBurst)
	}
	if c.OptimizeTimeout <= 0 {
		return fmt.Errorf("optimize_timeout must be > 0, got %v", c.OptimizeTimeout)
	}
	if err := c.Annealing.Validate(); err != nil {
		return fmt.Errorf("annealing: %w", err)
	}
	return nil
}
