// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package climate

import (
	"math/rand"
	"testing"
	"time"
)

func fixedClock(month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(2025, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func newTestService(month time.Month, seed int64) *Service {
	return NewService(
		WithClock(fixedClock(month)),
		WithRand(rand.New(rand.NewSource(seed))),
	)
}

func TestSeasonalForecast_WinterProjection(t *testing.T) {
	svc := newTestService(time.January, 7)

	fc := svc.SeasonalForecast("Jenin")

	if fc.Location != "Jenin" {
		t.Errorf("Location = %q, want Jenin", fc.Location)
	}
	if fc.Season != "Winter" {
		t.Errorf("Season = %q, want Winter", fc.Season)
	}
	if fc.AvgTempC != 17.0 {
		t.Errorf("AvgTempC = %v, want 17.0 (base 25 - 8)", fc.AvgTempC)
	}
	if fc.Zone != "Mediterranean" {
		t.Errorf("Zone = %q, want Mediterranean", fc.Zone)
	}
	if fc.Risk != RiskStable {
		t.Errorf("Risk = %q, want %q", fc.Risk, RiskStable)
	}
	// rain_factor 1.2 * wetness 2.0 * [0.8, 1.2) * 50
	if fc.RainfallMM < 96 || fc.RainfallMM > 144 {
		t.Errorf("RainfallMM = %v, want within [96, 144]", fc.RainfallMM)
	}
}

func TestSeasonalForecast_SeasonModifiers(t *testing.T) {
	tests := []struct {
		month    time.Month
		season   string
		wantTemp float64
	}{
		{time.January, "Winter", 10.0},
		{time.February, "Winter", 10.0},
		{time.December, "Winter", 10.0},
		{time.March, "Spring", 18.0},
		{time.May, "Spring", 18.0},
		{time.June, "Summer", 26.0},
		{time.August, "Summer", 26.0},
		{time.September, "Autumn", 16.0},
		{time.November, "Autumn", 16.0},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			svc := newTestService(tt.month, 1)
			fc := svc.SeasonalForecast("Hebron")
			if fc.Season != tt.season {
				t.Errorf("Season = %q, want %q", fc.Season, tt.season)
			}
			if fc.AvgTempC != tt.wantTemp {
				t.Errorf("AvgTempC = %v, want %v", fc.AvgTempC, tt.wantTemp)
			}
		})
	}
}

func TestSeasonalForecast_SummerIsDry(t *testing.T) {
	svc := newTestService(time.July, 3)

	fc := svc.SeasonalForecast("Tulkarm")

	if fc.RainfallMM != 0 {
		t.Errorf("RainfallMM = %v, want 0 in summer", fc.RainfallMM)
	}
}

func TestSeasonalForecast_CaseInsensitive(t *testing.T) {
	svc := newTestService(time.April, 1)

	for _, input := range []string{"gaza", "GAZA", "gAzA", " Gaza "} {
		fc := svc.SeasonalForecast(input)
		if fc.Location != "Gaza" {
			t.Errorf("SeasonalForecast(%q).Location = %q, want Gaza", input, fc.Location)
		}
		if fc.Zone != "Coastal" {
			t.Errorf("SeasonalForecast(%q).Zone = %q, want Coastal", input, fc.Zone)
		}
	}
}

func TestSeasonalForecast_UnknownDistrictUsesFallbackProfile(t *testing.T) {
	svc := newTestService(time.July, 1)

	fc := svc.SeasonalForecast("Atlantis")

	// Keeps the caller's name but projects from the Jenin baseline.
	if fc.Location != "Atlantis" {
		t.Errorf("Location = %q, want Atlantis", fc.Location)
	}
	if fc.AvgTempC != 33.0 {
		t.Errorf("AvgTempC = %v, want 33.0 (Jenin base 25 + 8)", fc.AvgTempC)
	}
	if fc.Zone != "Mediterranean" {
		t.Errorf("Zone = %q, want Mediterranean", fc.Zone)
	}
}

func TestSeasonalForecast_Deterministic(t *testing.T) {
	a := newTestService(time.October, 42)
	b := newTestService(time.October, 42)

	for _, city := range []string{"Jenin", "Jericho", "Gaza"} {
		fa := a.SeasonalForecast(city)
		fb := b.SeasonalForecast(city)
		if fa != fb {
			t.Errorf("forecasts for %s differ with the same seed: %+v vs %+v", city, fa, fb)
		}
	}
}

func TestSeasonalForecast_HeatStressInJerichoSummer(t *testing.T) {
	svc := newTestService(time.July, 1)

	fc := svc.SeasonalForecast("Jericho")

	if fc.AvgTempC != 40.0 {
		t.Errorf("AvgTempC = %v, want 40.0", fc.AvgTempC)
	}
	if fc.Risk != RiskHeatStress {
		t.Errorf("Risk = %q, want %q", fc.Risk, RiskHeatStress)
	}
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name string
		temp float64
		rain float64
		zone string
		want string
	}{
		{"extreme heat", 40, 0, "Arid", RiskHeatStress},
		{"boundary 38 is not heat stress", 38, 0, "Arid", RiskStable},
		{"frost", 2, 50, "Highland", RiskFrost},
		{"boundary 5 is not frost", 5, 50, "Highland", RiskStable},
		{"arid downpour", 20, 150, "Arid", RiskFlashFlood},
		{"wet but not arid", 20, 150, "Mediterranean", RiskStable},
		{"mild", 22, 30, "Coastal", RiskStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRisk(tt.temp, tt.rain, tt.zone)
			if got != tt.want {
				t.Errorf("classifyRisk(%v, %v, %q) = %q, want %q", tt.temp, tt.rain, tt.zone, got, tt.want)
			}
		})
	}
}

func TestDistricts_SortedAndComplete(t *testing.T) {
	svc := NewService()

	got := svc.Districts()
	want := []string{"Gaza", "Hebron", "Jenin", "Jericho", "Nablus", "Ramallah", "Tulkarm"}

	if len(got) != len(want) {
		t.Fatalf("Districts() returned %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Districts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProfile_Lookup(t *testing.T) {
	svc := NewService()

	p, ok := svc.Profile("jericho")
	if !ok {
		t.Fatal("Profile(jericho) not found")
	}
	if p.BaseTempC != 32 || p.RainFactor != 0.2 || p.Zone != "Arid" {
		t.Errorf("Profile(jericho) = %+v, want {32 0.2 Arid}", p)
	}

	if _, ok := svc.Profile("Nowhere"); ok {
		t.Error("Profile(Nowhere) found, want ok=false")
	}
}

func TestNormalizeDistrict(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gaza", "Gaza"},
		{"GAZA", "Gaza"},
		{"tulKARM", "Tulkarm"},
		{" Jenin ", "Jenin"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeDistrict(tt.in); got != tt.want {
			t.Errorf("normalizeDistrict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
