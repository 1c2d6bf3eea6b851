// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package quantum

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SeedPolicy selects how the initial state is built.
type SeedPolicy string

const (
	// SeedGreedy assigns every region its highest feasibility crop.
	// Deterministic, so it is the default for reproducible runs.
	SeedGreedy SeedPolicy = "greedy"

	// SeedRandom assigns every region a uniformly drawn crop.
	SeedRandom SeedPolicy = "random"
)

// Config holds every tunable of an annealing run.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after use.
type Config struct {
	// InitialTemperature is T0, the starting acceptance temperature.
	// Must be > 0.
	InitialTemperature float64 `json:"initial_temperature" yaml:"initial_temperature"`

	// CoolingRate is the geometric decay alpha applied each iteration,
	// T <- T * alpha. Must be in (0, 1).
	CoolingRate float64 `json:"cooling_rate" yaml:"cooling_rate"`

	// MinTemperature is the convergence floor: the run stops once T drops
	// below it. Must be > 0.
	MinTemperature float64 `json:"min_temperature" yaml:"min_temperature"`

	// MaxIterations caps the run regardless of temperature. Must be > 0.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// FeasibilityPenaltyWeight is lambda, the weight of the agronomic
	// suitability term against the squared demand gap. Must be >= 0;
	// 0 means demand matching only.
	FeasibilityPenaltyWeight float64 `json:"feasibility_penalty_weight" yaml:"feasibility_penalty_weight"`

	// RandomSeed seeds the run's private RNG. Two runs with the same seed,
	// config and snapshot produce identical results.
	RandomSeed int64 `json:"random_seed" yaml:"random_seed"`

	// SeedPolicy picks the initial state: greedy (default) or random.
	SeedPolicy SeedPolicy `json:"seed_policy" yaml:"seed_policy"`

	// ProposalPolicy picks the neighbor distribution: biased (default)
	// or uniform.
	ProposalPolicy ProposalPolicy `json:"proposal_policy" yaml:"proposal_policy"`

	// ProgressInterval is the number of iterations between progress
	// callbacks. 0 disables progress reporting.
	ProgressInterval int `json:"progress_interval" yaml:"progress_interval"`
}

// DefaultConfig returns the standard annealing schedule.
func DefaultConfig() Config {
	return Config{
		InitialTemperature:       100.0,
		CoolingRate:              0.995,
		MinTemperature:           0.01,
		MaxIterations:            10000,
		FeasibilityPenaltyWeight: 1.0,
		RandomSeed:               1,
		SeedPolicy:               SeedGreedy,
		ProposalPolicy:           ProposalBiased,
		ProgressInterval:         0,
	}
}

// LoadConfig loads configuration with priority: env > file > defaults.
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

// ApplyEnv overlays AGRIQ_SA_* environment variables on config. Unparseable
// values are ignored so a bad env var never breaks startup. Exposed so callers
// that embed Config in a larger configuration can keep the same layering
// order: defaults, then file, then environment.
func ApplyEnv(config *Config) {
	if v := os.Getenv("AGRIQ_SA_INITIAL_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.InitialTemperature = f
		}
	}
	if v := os.Getenv("AGRIQ_SA_COOLING_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.CoolingRate = f
		}
	}
	if v := os.Getenv("AGRIQ_SA_MIN_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.MinTemperature = f
		}
	}
	if v := os.Getenv("AGRIQ_SA_MAX_ITERATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.MaxIterations = i
		}
	}
	if v := os.Getenv("AGRIQ_SA_FEASIBILITY_PENALTY_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.FeasibilityPenaltyWeight = f
		}
	}
	if v := os.Getenv("AGRIQ_SA_RANDOM_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.RandomSeed = i
		}
	}
	if v := os.Getenv("AGRIQ_SA_SEED_POLICY"); v != "" {
		config.SeedPolicy = SeedPolicy(v)
	}
	if v := os.Getenv("AGRIQ_SA_PROPOSAL_POLICY"); v != "" {
		config.ProposalPolicy = ProposalPolicy(v)
	}
	if v := os.Getenv("AGRIQ_SA_PROGRESS_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.ProgressInterval = i
		}
	}
}

// Validate checks that the configuration is valid. All problems are reported
// together in a *ValidationError.
func (c Config) Validate() error {
	verr := &ValidationError{}

	if c.InitialTemperature <= 0 {
		verr.add("initial_temperature", "must be > 0, got %v", c.InitialTemperature)
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		verr.add("cooling_rate", "must be in (0,1), got %v", c.CoolingRate)
	}
	if c.MinTemperature <= 0 {
		verr.add("min_temperature", "must be > 0, got %v", c.MinTemperature)
	}
	if c.MaxIterations <= 0 {
		verr.add("max_iterations", "must be > 0, got %d", c.MaxIterations)
	}
	if c.FeasibilityPenaltyWeight < 0 {
		verr.add("feasibility_penalty_weight", "must be >= 0, got %v", c.FeasibilityPenaltyWeight)
	}
	if c.SeedPolicy != SeedGreedy && c.SeedPolicy != SeedRandom {
		verr.add("seed_policy", "must be %q or %q, got %q", SeedGreedy, SeedRandom, c.SeedPolicy)
	}
	if c.ProposalPolicy != ProposalBiased && c.ProposalPolicy != ProposalUniform {
		verr.add("proposal_policy", "must be %q or %q, got %q", ProposalBiased, ProposalUniform, c.ProposalPolicy)
	}
	if c.ProgressInterval < 0 {
		verr.add("progress_interval", "must be >= 0, got %d", c.ProgressInterval)
	}

	return verr.orNil()
}
