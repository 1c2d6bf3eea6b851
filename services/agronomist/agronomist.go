// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agronomist scores crop suitability against soil chemistry and the
// seasonal climate projection.
//
// The scorer is rule-based: each crop carries agronomic requirement bands
// for nitrogen, phosphorus, potassium, pH, temperature and rainfall, and the
// score measures how far the measured conditions sit from those bands. No
// model training is involved, which keeps scores reproducible across runs
// and environments.
package agronomist

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Ghayda-Saify/agriq-hackathon/services/climate"
)

// ErrUnknownCrop is returned when a crop has no requirement profile.
var ErrUnknownCrop = errors.New("agronomist: unknown crop")

// Component weights. Nutrients dominate because they are the lever a grower
// actually controls; climate is forecast context.
const (
	nutrientWeight = 0.45
	phWeight       = 0.15
	climateWeight  = 0.40
)

// Status bands for dashboard display.
const (
	StatusGreen  = "green"
	StatusYellow = "yellow"
	StatusRed    = "red"
)

// Band is an inclusive tolerance range. Values inside score 100; outside,
// the score falls off linearly and reaches zero one band-width past the
// nearest edge.
type Band struct {
	Min float64
	Max float64
}

func (b Band) score(v float64) float64 {
	if v >= b.Min && v <= b.Max {
		return 100
	}
	width := b.Max - b.Min
	if width <= 0 {
		return 0
	}
	dist := b.Min - v
	if v > b.Max {
		dist = v - b.Max
	}
	s := 100 * (1 - dist/width)
	if s < 0 {
		return 0
	}
	return s
}

// Requirements is the agronomic envelope a crop grows best in.
type Requirements struct {
	Nitrogen   Band
	Phosphorus Band
	Potassium  Band
	PH         Band
	TempC      Band
	RainMM     Band
}

// SoilProfile holds the N-P-K measurements for a plot or district.
type SoilProfile struct {
	Nitrogen   float64 `json:"n"`
	Phosphorus float64 `json:"p"`
	Potassium  float64 `json:"k"`
}

// DistrictSoil pairs a district's nutrient profile with its measured pH.
type DistrictSoil struct {
	Profile SoilProfile
	PH      float64
}

// soilPresets maps the soil classes a grower can pick on the dashboard to
// standard N-P-K values.
var soilPresets = map[string]SoilProfile{
	"Clay":  {Nitrogen: 80, Phosphorus: 60, Potassium: 70},
	"Loamy": {Nitrogen: 60, Phosphorus: 50, Potassium: 60},
	"Sandy": {Nitrogen: 30, Phosphorus: 20, Potassium: 30},
}

// defaultPreset answers for unrecognized soil classes.
var defaultPreset = SoilProfile{Nitrogen: 50, Phosphorus: 50, Potassium: 50}

// SoilPreset resolves a soil class name to its nutrient profile. Matching is
// case-insensitive; unknown classes get the default profile.
func SoilPreset(class string) SoilProfile {
	key := strings.TrimSpace(class)
	if key == "" {
		return defaultPreset
	}
	key = strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	if p, ok := soilPresets[key]; ok {
		return p
	}
	return defaultPreset
}

// defaultCatalog lists the national crop catalog in planning order. The
// order is load-bearing: the optimizer breaks feasibility ties by catalog
// position.
var defaultCatalog = []string{
	"Wheat", "Tomato", "Olive", "Banana", "Grapes", "Watermelon", "Strawberry",
}

// defaultRequirements carries the requirement bands for the national
// catalog. The N-P-K and pH bands for Olive, Wheat and Tomato come from the
// field-sample dataset; the rest are calibrated against the same sample
// distributions.
var defaultRequirements = map[string]Requirements{
	"Wheat": {
		Nitrogen:   Band{60, 90},
		Phosphorus: Band{30, 50},
		Potassium:  Band{30, 50},
		PH:         Band{6.0, 7.0},
		TempC:      Band{5, 25},
		RainMM:     Band{30, 150},
	},
	"Tomato": {
		Nitrogen:   Band{80, 120},
		Phosphorus: Band{40, 60},
		Potassium:  Band{50, 80},
		PH:         Band{6.0, 6.8},
		TempC:      Band{15, 32},
		RainMM:     Band{20, 80},
	},
	"Olive": {
		Nitrogen:   Band{40, 60},
		Phosphorus: Band{20, 40},
		Potassium:  Band{30, 50},
		PH:         Band{6.0, 7.5},
		TempC:      Band{10, 35},
		RainMM:     Band{20, 120},
	},
	"Banana": {
		Nitrogen:   Band{80, 120},
		Phosphorus: Band{70, 95},
		Potassium:  Band{45, 55},
		PH:         Band{5.5, 6.5},
		TempC:      Band{20, 38},
		RainMM:     Band{50, 180},
	},
	"Grapes": {
		Nitrogen:   Band{20, 60},
		Phosphorus: Band{30, 60},
		Potassium:  Band{40, 80},
		PH:         Band{5.5, 7.0},
		TempC:      Band{15, 35},
		RainMM:     Band{20, 100},
	},
	"Watermelon": {
		Nitrogen:   Band{80, 120},
		Phosphorus: Band{10, 30},
		Potassium:  Band{40, 60},
		PH:         Band{6.0, 7.0},
		TempC:      Band{22, 38},
		RainMM:     Band{10, 60},
	},
	"Strawberry": {
		Nitrogen:   Band{40, 80},
		Phosphorus: Band{30, 50},
		Potassium:  Band{40, 70},
		PH:         Band{5.5, 6.5},
		TempC:      Band{10, 26},
		RainMM:     Band{30, 120},
	},
}

// riskDiscount scales scores down when the forecast flags an extreme event.
// Stress events damage every crop; the temperature band already separates
// heat-loving crops from heat-sensitive ones.
var riskDiscount = map[string]float64{
	climate.RiskStable:     1.0,
	climate.RiskHeatStress: 0.75,
	climate.RiskFrost:      0.7,
	climate.RiskFlashFlood: 0.8,
}

// Forecaster provides the seasonal projection for a district.
type Forecaster interface {
	SeasonalForecast(location string) climate.Forecast
}

// Scorer rates crop suitability 0-100.
//
// Thread Safety: Safe for concurrent use after construction; the catalog
// and requirement bands are never mutated.
type Scorer struct {
	catalog []string
	reqs    map[string]Requirements
}

// Option configures the scorer.
type Option func(*Scorer)

// WithCrop adds or replaces a crop's requirement profile. New crops append
// to the catalog in option order.
func WithCrop(name string, reqs Requirements) Option {
	return func(s *Scorer) {
		if _, ok := s.reqs[name]; !ok {
			s.catalog = append(s.catalog, name)
		}
		s.reqs[name] = reqs
	}
}

// NewScorer builds a scorer over the national crop catalog.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		catalog: append([]string(nil), defaultCatalog...),
		reqs:    make(map[string]Requirements, len(defaultRequirements)),
	}
	for name, reqs := range defaultRequirements {
		s.reqs[name] = reqs
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crops returns the crop catalog in planning order.
func (s *Scorer) Crops() []string {
	return append([]string(nil), s.catalog...)
}

// Requirements returns the requirement bands for a catalog crop. The second
// return is false for crops outside the catalog.
func (s *Scorer) Requirements(crop string) (Requirements, bool) {
	reqs, ok := s.reqs[crop]
	return reqs, ok
}

// Score rates one crop against soil chemistry and a climate forecast.
//
// Inputs:
//   - crop: catalog crop name (exact match)
//   - soil: measured or preset N-P-K values
//   - ph: soil pH
//   - fc: the district's seasonal forecast
//
// Outputs:
//   - score in [0, 100]
//   - ErrUnknownCrop if the crop has no requirement profile
func (s *Scorer) Score(crop string, soil SoilProfile, ph float64, fc climate.Forecast) (float64, error) {
	reqs, ok := s.reqs[crop]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCrop, crop)
	}

	nutrients := (reqs.Nitrogen.score(soil.Nitrogen) +
		reqs.Phosphorus.score(soil.Phosphorus) +
		reqs.Potassium.score(soil.Potassium)) / 3
	acidity := reqs.PH.score(ph)
	weather := (reqs.TempC.score(fc.AvgTempC) + reqs.RainMM.score(fc.RainfallMM)) / 2

	score := nutrientWeight*nutrients + phWeight*acidity + climateWeight*weather

	if d, ok := riskDiscount[fc.Risk]; ok {
		score *= d
	}
	return math.Min(100, math.Max(0, score)), nil
}

// BuildFeasibilityTable scores every catalog crop for every district,
// producing the feasibility table the optimizer consumes.
//
// Each district is forecast once and the projection is reused across its
// crops, so a shared RNG inside the forecaster does not skew crops within a
// district against each other.
func (s *Scorer) BuildFeasibilityTable(soils map[string]DistrictSoil, fc Forecaster) map[string]map[string]float64 {
	table := make(map[string]map[string]float64, len(soils))
	for district, soil := range soils {
		forecast := fc.SeasonalForecast(district)
		row := make(map[string]float64, len(s.catalog))
		for _, crop := range s.catalog {
			score, err := s.Score(crop, soil.Profile, soil.PH, forecast)
			if err != nil {
				continue
			}
			row[crop] = score
		}
		table[district] = row
	}
	return table
}

// Status bands a score for dashboard display: above 75 is green, above 45
// is yellow, anything else is red.
func Status(score float64) string {
	switch {
	case score > 75:
		return StatusGreen
	case score > 45:
		return StatusYellow
	default:
		return StatusRed
	}
}
