// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store holds the loaded dataset for a data directory and supports atomic
// reloads, so the watcher can refresh it while requests read.
//
// Thread Safety: Safe for concurrent use. Load swaps the dataset under a
// write lock; readers get copies.
type Store struct {
	dir        string
	areaFactor float64

	mu            sync.RWMutex
	soil          []SoilSample
	market        []MarketRecord
	summaries     map[string]DistrictSummary
	soilSkipped   int
	marketSkipped int
	loadedAt      time.Time
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithAreaFactor overrides the yield-to-capacity factor.
func WithAreaFactor(f float64) StoreOption {
	return func(s *Store) {
		s.areaFactor = f
	}
}

// NewStore builds a store over a data directory. Call Load before reading.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:        dir,
		areaFactor: DefaultAreaFactor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the data directory and swaps in the new dataset.
//
// The soil file is required. Market history and region overrides are
// optional: planning degrades to static demand assumptions without market
// data, and overrides only adjust what the samples already establish.
// On error the previously loaded dataset stays in place.
func (s *Store) Load() error {
	soil, soilSkipped, err := LoadSoilSamples(filepath.Join(s.dir, SoilFile))
	if err != nil {
		return err
	}

	var market []MarketRecord
	marketSkipped := 0
	marketPath := filepath.Join(s.dir, MarketFile)
	if fileExists(marketPath) {
		market, marketSkipped, err = LoadMarketHistory(marketPath)
		if err != nil {
			return err
		}
	}

	summaries := AggregateSoil(soil, s.areaFactor)

	overrides, err := LoadRegionOverrides(filepath.Join(s.dir, RegionsFile))
	if err != nil {
		return err
	}
	ApplyOverrides(summaries, overrides)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.soil = soil
	s.market = market
	s.summaries = summaries
	s.soilSkipped = soilSkipped
	s.marketSkipped = marketSkipped
	s.loadedAt = time.Now()
	return nil
}

// Ready reports whether a dataset has been loaded.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries != nil
}

// Dir returns the data directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Summaries returns a copy of the per-district aggregation.
func (s *Store) Summaries() map[string]DistrictSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]DistrictSummary, len(s.summaries))
	for k, v := range s.summaries {
		out[k] = v
	}
	return out
}

// SoilSamples returns a copy of the raw soil rows.
func (s *Store) SoilSamples() []SoilSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SoilSample(nil), s.soil...)
}

// MarketRecords returns a copy of the market history.
func (s *Store) MarketRecords() []MarketRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MarketRecord(nil), s.market...)
}

// Skipped returns how many malformed soil and market rows the last load
// dropped.
func (s *Store) Skipped() (soil, market int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.soilSkipped, s.marketSkipped
}

// LoadedAt returns when the dataset was last swapped in.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
