// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Ghayda-Saify/agriq-hackathon/services/agronomist"
	"github.com/Ghayda-Saify/agriq-hackathon/services/dataset"
	"github.com/Ghayda-Saify/agriq-hackathon/services/economist"
)

// =============================================================================
// Dataset Synthesis
// =============================================================================

// samplesPerCrop is how many soil samples the generator emits per catalog
// crop. Enough rows per district that the aggregated means sit near the
// band centers.
const samplesPerCrop = 150

// weeksPerYear matches the market pipeline's 52-week year.
const weeksPerYear = 52

// cropHomes maps each catalog crop to the district where its field samples
// were collected. Every home must carry a climate profile so generated
// datasets plan without falling back to the default district.
var cropHomes = map[string]string{
	"Wheat":      "Nablus",
	"Tomato":     "Tulkarm",
	"Olive":      "Jenin",
	"Banana":     "Jericho",
	"Grapes":     "Hebron",
	"Watermelon": "Jenin",
	"Strawberry": "Gaza",
}

// Seasonal price behavior. High season means high supply, which pushes
// prices down for summer crops and up for the winter crop.
var (
	summerCrops = map[string]bool{"Watermelon": true, "Grapes": true, "Tomato": true}
	winterCrops = map[string]bool{"Banana": true}
)

// generateOptions configures dataset synthesis.
type generateOptions struct {
	// OutDir is the directory receiving soil_samples.csv and
	// market_history.csv. Created if missing.
	OutDir string

	// Seed drives the synthesis RNG. Same seed, same files.
	Seed int64

	// Years of weekly market history to generate.
	Years int

	// Now anchors the market history so it ends on this date. Zero means
	// time.Now(); tests pin it for reproducible files.
	Now time.Time
}

// generateDataset synthesizes a planner dataset from the crop catalog.
//
// Soil samples are drawn uniformly inside each crop's requirement bands, so
// every district's aggregate profile suits its home crop. Market history is
// weekly with a seasonal sine on summer and winter crops, ending at the
// anchor date so the economist's trailing window actually sees it.
//
// # Inputs
//
//   - opts: Output directory, seed, years, optional time anchor.
//
// # Outputs
//
//   - *GenerateOutput: Row counts and file paths for reporting.
//   - error: Non-nil on invalid options or write failure.
func generateDataset(opts generateOptions) (*GenerateOutput, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}
	if opts.Years < 1 {
		return nil, fmt.Errorf("years must be >= 1, got %d", opts.Years)
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if err := os.MkdirAll(opts.OutDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	scorer := agronomist.NewScorer()
	crops := scorer.Crops()

	soilRows, err := synthesizeSoil(rng, scorer, crops)
	if err != nil {
		return nil, err
	}
	soilPath := filepath.Join(opts.OutDir, dataset.SoilFile)
	if err := writeCSV(soilPath, soilRows); err != nil {
		return nil, fmt.Errorf("write soil samples: %w", err)
	}

	marketRows := synthesizeMarket(rng, crops, opts.Years, now)
	marketPath := filepath.Join(opts.OutDir, dataset.MarketFile)
	if err := writeCSV(marketPath, marketRows); err != nil {
		return nil, fmt.Errorf("write market history: %w", err)
	}

	return &GenerateOutput{
		OutDir:     opts.OutDir,
		SoilFile:   soilPath,
		MarketFile: marketPath,
		SoilRows:   len(soilRows) - 1, // minus header
		MarketRows: len(marketRows) - 1,
		Crops:      len(crops),
		Seed:       opts.Seed,
		Years:      opts.Years,
	}, nil
}

// synthesizeSoil draws samplesPerCrop field measurements per crop inside its
// requirement bands. Yield gets a bonus when nitrogen lands in the upper
// half of the band.
func synthesizeSoil(rng *rand.Rand, scorer *agronomist.Scorer, crops []string) ([][]string, error) {
	rows := [][]string{{"District", "N", "P", "K", "ph", "Crop", "Yield_Ton"}}

	for _, crop := range crops {
		reqs, ok := scorer.Requirements(crop)
		if !ok {
			return nil, fmt.Errorf("crop %q has no requirement profile", crop)
		}
		district, ok := cropHomes[crop]
		if !ok {
			return nil, fmt.Errorf("crop %q has no home district", crop)
		}

		for i := 0; i < samplesPerCrop; i++ {
			n := uniform(rng, reqs.Nitrogen)
			p := uniform(rng, reqs.Phosphorus)
			k := uniform(rng, reqs.Potassium)
			ph := uniform(rng, reqs.PH)

			yieldBonus := 0.0
			if n > (reqs.Nitrogen.Min+reqs.Nitrogen.Max)/2 {
				yieldBonus = 1.0
			}
			yield := 2.5 + yieldBonus + (rng.Float64()-0.5)

			rows = append(rows, []string{
				district,
				formatFloat(round1(n)),
				formatFloat(round1(p)),
				formatFloat(round1(k)),
				formatFloat(round1(ph)),
				crop,
				formatFloat(round2(yield)),
			})
		}
	}
	return rows, nil
}

// synthesizeMarket emits weekly price/demand rows per crop ending at the
// anchor date. Prices ride a seasonal sine for summer and winter crops plus
// uniform noise, floored at 1.5; demand follows the inverse demand law with
// its own noise.
func synthesizeMarket(rng *rand.Rand, crops []string, years int, now time.Time) [][]string {
	rows := [][]string{{"Date", "Crop", "Price", "Demand_Ton"}}

	weeks := weeksPerYear * years
	start := now.AddDate(0, 0, -7*(weeks-1))

	for _, crop := range crops {
		base := economist.BasePrice(crop)

		for i := 0; i < weeks; i++ {
			date := start.AddDate(0, 0, 7*i)
			season := math.Sin(float64(date.Month()) / 12 * 2 * math.Pi)
			noise := uniform(rng, agronomist.Band{Min: -2, Max: 2})

			price := base + noise
			switch {
			case summerCrops[crop]:
				price = base - season*3 + noise
			case winterCrops[crop]:
				price = base + season*3 + noise
			}
			if price < 1.5 {
				price = 1.5
			}

			demand := 5000/price + uniform(rng, agronomist.Band{Min: -100, Max: 100})

			rows = append(rows, []string{
				date.Format("2006-01-02"),
				crop,
				formatFloat(round2(price)),
				formatFloat(round2(demand)),
			})
		}
	}
	return rows
}

// writeCSV writes rows to path, replacing any existing file.
func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func uniform(rng *rand.Rand, b agronomist.Band) float64 {
	return b.Min + rng.Float64()*(b.Max-b.Min)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
