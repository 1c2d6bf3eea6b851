// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_crop_docs generates a markdown reference of the planning catalog.
//
// Usage:
//
//	go run scripts/generate_crop_docs.go > docs/catalog.md
//
// The generated documentation includes:
//   - Per-crop agronomic requirement bands
//   - Market baselines (reference price and demand)
//   - Soil presets and status banding
//   - District climate profiles
package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/Ghayda-Saify/agriq-hackathon/services/agronomist"
	"github.com/Ghayda-Saify/agriq-hackathon/services/climate"
	"github.com/Ghayda-Saify/agriq-hackathon/services/economist"
)

func main() {
	scorer := agronomist.NewScorer()
	clim := climate.NewService()

	fmt.Println("# AgriQ Planning Catalog Reference")
	fmt.Println()
	fmt.Printf("Generated on %s. Do not edit by hand; regenerate with\n", time.Now().Format("2006-01-02"))
	fmt.Println("`go run scripts/generate_crop_docs.go`.")
	fmt.Println()

	writeCropBands(scorer)
	writeMarketBaselines(scorer)
	writeSoilPresets()
	writeClimateProfiles(clim)
	writeStatusBanding()
}

func writeCropBands(scorer *agronomist.Scorer) {
	fmt.Println("## Crop Requirement Bands")
	fmt.Println()
	fmt.Println("Each band is the range a measurement scores 100 inside, with a linear")
	fmt.Println("falloff outside it.")
	fmt.Println()
	fmt.Println("| Crop | N | P | K | pH | Temp (°C) | Rain (mm) |")
	fmt.Println("|------|---|---|---|----|-----------|-----------|")

	for _, crop := range scorer.Crops() {
		reqs, ok := scorer.Requirements(crop)
		if !ok {
			continue
		}
		fmt.Printf("| %s | %s | %s | %s | %s | %s | %s |\n",
			crop,
			band(reqs.Nitrogen), band(reqs.Phosphorus), band(reqs.Potassium),
			band(reqs.PH), band(reqs.TempC), band(reqs.RainMM))
	}
	fmt.Println()
}

func writeMarketBaselines(scorer *agronomist.Scorer) {
	fmt.Println("## Market Baselines")
	fmt.Println()
	fmt.Println("Reference prices seed the inverse demand curve; trailing market history")
	fmt.Println("replaces the demand base when it is available.")
	fmt.Println()
	fmt.Println("| Crop | Base Price | Base Demand (tons) |")
	fmt.Println("|------|------------|--------------------|")

	for _, crop := range scorer.Crops() {
		fmt.Printf("| %s | %.0f | %.0f |\n",
			crop, economist.BasePrice(crop), economist.BaseDemand(crop))
	}
	fmt.Println()
}

func writeSoilPresets() {
	fmt.Println("## Soil Presets")
	fmt.Println()
	fmt.Println("| Class | N | P | K |")
	fmt.Println("|-------|---|---|---|")

	for _, class := range []string{"Clay", "Loamy", "Sandy", "Other"} {
		p := agronomist.SoilPreset(class)
		fmt.Printf("| %s | %.0f | %.0f | %.0f |\n",
			class, p.Nitrogen, p.Phosphorus, p.Potassium)
	}
	fmt.Println()
}

func writeClimateProfiles(clim *climate.Service) {
	fmt.Println("## District Climate Profiles")
	fmt.Println()
	fmt.Println("| District | Base Temp (°C) | Rain Factor | Zone |")
	fmt.Println("|----------|----------------|-------------|------|")

	districts := clim.Districts()
	sort.Strings(districts)
	for _, d := range districts {
		p, ok := clim.Profile(d)
		if !ok {
			continue
		}
		fmt.Printf("| %s | %.0f | %.1f | %s |\n", d, p.BaseTempC, p.RainFactor, p.Zone)
	}
	fmt.Println()
}

func writeStatusBanding() {
	fmt.Println("## Status Banding")
	fmt.Println()
	fmt.Println("| Status | Score |")
	fmt.Println("|--------|-------|")
	fmt.Println("| green | > 75 |")
	fmt.Println("| yellow | > 45 |")
	fmt.Println("| red | otherwise |")
	fmt.Println()
}

func band(b agronomist.Band) string {
	return fmt.Sprintf("%g to %g", b.Min, b.Max)
}
