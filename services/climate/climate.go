// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package climate provides seasonal climate projections for the planning
// districts.
//
// There is no live weather retrieval: the service projects from static
// district baselines adjusted by meteorological season, which is what the
// feasibility scorer needs to judge whether a crop survives the coming
// season. Rainfall carries a bounded random variation drawn from an
// injectable source, so callers that need reproducible projections inject a
// seeded RNG.
package climate

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Risk classifications attached to a forecast.
const (
	RiskStable     = "Stable"
	RiskHeatStress = "High Heat Stress"
	RiskFrost      = "Frost Warning"
	RiskFlashFlood = "Flash Flood Risk"
)

// Profile is a district's climate baseline: average temperature (Celsius),
// a relative rainfall factor, and the climate zone label.
type Profile struct {
	BaseTempC  float64 `json:"base_temp_c"`
	RainFactor float64 `json:"rain_factor"`
	Zone       string  `json:"zone"`
}

// Forecast is a seasonal projection for one district.
type Forecast struct {
	Location   string  `json:"location"`
	Season     string  `json:"season_name"`
	AvgTempC   float64 `json:"avg_temp_c"`
	RainfallMM float64 `json:"rainfall_mm"`
	Zone       string  `json:"climate_type"`
	Risk       string  `json:"risk_factor"`
}

// defaultProfiles holds the baselines for the major districts.
var defaultProfiles = map[string]Profile{
	"Jenin":    {BaseTempC: 25, RainFactor: 1.2, Zone: "Mediterranean"},
	"Jericho":  {BaseTempC: 32, RainFactor: 0.2, Zone: "Arid"},
	"Hebron":   {BaseTempC: 18, RainFactor: 1.1, Zone: "Highland"},
	"Nablus":   {BaseTempC: 22, RainFactor: 1.3, Zone: "Mediterranean"},
	"Tulkarm":  {BaseTempC: 24, RainFactor: 1.4, Zone: "Coastal Plain"},
	"Gaza":     {BaseTempC: 26, RainFactor: 0.9, Zone: "Coastal"},
	"Ramallah": {BaseTempC: 20, RainFactor: 1.2, Zone: "Highland"},
}

// fallbackDistrict answers for unknown locations, matching the behavior the
// dashboard has always relied on.
const fallbackDistrict = "Jenin"

// Service projects seasonal forecasts from district baselines.
//
// Thread Safety: Safe for concurrent use; the RNG is mutex-guarded.
type Service struct {
	profiles map[string]Profile

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithRand sets the rainfall variation source. Inject a seeded RNG for
// reproducible forecasts.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

// WithClock overrides the time source used to pick the season.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService builds a climate service over the built-in district profiles.
func NewService(opts ...Option) *Service {
	s := &Service{
		profiles: defaultProfiles,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Districts returns the known district names, sorted.
func (s *Service) Districts() []string {
	out := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Profile returns a district's baseline. ok=false for unknown districts.
func (s *Service) Profile(location string) (Profile, bool) {
	p, ok := s.profiles[normalizeDistrict(location)]
	return p, ok
}

// SeasonalForecast projects the coming season for a district.
//
// The projection applies the season's temperature shift to the district
// baseline, and scales rainfall by the season's wetness times a bounded
// 0.8-1.2 variation:
//
//	rainfall_mm = rain_factor * season_wetness * variation * 50
//
// Unknown districts are projected from the Jenin profile rather than
// failing, though the forecast keeps the caller's district name; the
// request layer validates location names before they get here.
func (s *Service) SeasonalForecast(location string) Forecast {
	city := normalizeDistrict(location)
	profile, ok := s.profiles[city]
	if !ok {
		profile = s.profiles[fallbackDistrict]
	}

	season, tempMod, rainMod := seasonModifiers(s.now().Month())

	temp := profile.BaseTempC + tempMod
	rain := profile.RainFactor * rainMod * s.variation() * 50

	return Forecast{
		Location:   city,
		Season:     season,
		AvgTempC:   round1(temp),
		RainfallMM: round1(rain),
		Zone:       profile.Zone,
		Risk:       classifyRisk(temp, rain, profile.Zone),
	}
}

func (s *Service) variation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 0.8 + s.rng.Float64()*0.4
}

// seasonModifiers maps a month to its season name, temperature shift
// (Celsius) and rainfall wetness multiplier.
func seasonModifiers(month time.Month) (string, float64, float64) {
	switch month {
	case time.December, time.January, time.February:
		return "Winter", -8.0, 2.0
	case time.March, time.April, time.May:
		return "Spring", 0.0, 0.8
	case time.June, time.July, time.August:
		return "Summer", 8.0, 0.0
	default:
		return "Autumn", -2.0, 0.5
	}
}

// classifyRisk flags extreme weather for a projection.
func classifyRisk(temp, rain float64, zone string) string {
	if temp > 38 {
		return RiskHeatStress
	}
	if temp < 5 {
		return RiskFrost
	}
	// Rare but possible in Jericho.
	if zone == "Arid" && rain > 100 {
		return RiskFlashFlood
	}
	return RiskStable
}

// normalizeDistrict matches the profile key regardless of input casing.
func normalizeDistrict(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	return strings.ToUpper(location[:1]) + strings.ToLower(location[1:])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
