// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package economist projects market prices and demand for the national crop
// catalog.
//
// The projection is a six-month inverse demand curve: demand follows a
// seasonal sine over the month index scaled by a per-crop base, and price is
// priceScale divided by demand with a hard floor. A bounded volatility term
// from an injectable RNG keeps charts from looking synthetic; seed the RNG
// for reproducible forecasts. When trailing market history is available the
// observed mean demand replaces the static base, so the forecast tracks the
// dataset instead of the built-in assumptions.
package economist

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// forecastMonths is the projection horizon.
	forecastMonths = 6

	// demandScale converts a reference price into a base monthly demand
	// (tons) through the inverse demand law demand = demandScale / price.
	demandScale = 5000

	// defaultPriceScale drives the projected price back out of projected
	// demand: price = priceScale / demand.
	defaultPriceScale = 4000

	// priceFloor keeps projected prices above giveaway levels.
	priceFloor = 1.5

	// seasonalSwing is the peak-to-baseline demand swing over the year.
	seasonalSwing = 0.15

	// volatilityBound caps the per-month random demand variation.
	volatilityBound = 0.1

	// trailingWindow is how far back History is consulted for the
	// observed demand base.
	trailingWindow = 180 * 24 * time.Hour
)

var monthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Forecast is a six-month market projection for one crop. Slices are
// parallel: Prices[i] and Demand[i] belong to Months[i].
type Forecast struct {
	Crop   string    `json:"crop"`
	Months []string  `json:"months"`
	Prices []float64 `json:"prices"`
	Demand []float64 `json:"demand"`
}

// BasePrice returns the reference price (NIS/ton scale) for a crop.
func BasePrice(crop string) float64 {
	switch crop {
	case "Olive", "Dates":
		return 20
	case "Wheat":
		return 5
	default:
		return 10
	}
}

// BaseDemand returns the static monthly demand assumption (tons) for a
// crop, derived from the inverse demand law over its reference price.
func BaseDemand(crop string) float64 {
	return demandScale / BasePrice(crop)
}

// Economist produces market forecasts and the national demand table.
//
// Thread Safety: Safe for concurrent use; the RNG is mutex-guarded.
type Economist struct {
	source     MarketSource
	priceScale float64

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// Option configures the economist.
type Option func(*Economist)

// WithSource attaches a trailing market history source. When history exists
// for a crop, its mean demand replaces the static base.
func WithSource(src MarketSource) Option {
	return func(e *Economist) {
		e.source = src
	}
}

// WithPriceScale overrides the inverse demand curve numerator.
func WithPriceScale(scale float64) Option {
	return func(e *Economist) {
		e.priceScale = scale
	}
}

// WithRand sets the volatility source. Inject a seeded RNG for reproducible
// forecasts.
func WithRand(rng *rand.Rand) Option {
	return func(e *Economist) {
		e.rng = rng
	}
}

// WithClock overrides the time source used to pick the starting month.
func WithClock(now func() time.Time) Option {
	return func(e *Economist) {
		e.now = now
	}
}

// NewEconomist builds an economist. Without options it projects from the
// static per-crop bases with wall-clock months and an unseeded RNG.
func NewEconomist(opts ...Option) *Economist {
	e := &Economist{
		priceScale: defaultPriceScale,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForecastMarket projects six months of prices and demand for one crop.
//
// Inputs:
//   - ctx: cancels the history lookup
//   - crop: crop name; unknown crops project from the default base
//
// Outputs:
//   - the forecast, months labeled from the current month forward
//   - an error only when the history source fails
func (e *Economist) ForecastMarket(ctx context.Context, crop string) (Forecast, error) {
	base := BaseDemand(crop)

	if e.source != nil {
		since := e.now().Add(-trailingWindow)
		records, err := e.source.History(ctx, crop, since)
		if err != nil {
			return Forecast{}, fmt.Errorf("market history for %s: %w", crop, err)
		}
		if m := meanDemand(records); m > 0 {
			base = m
		}
	}

	startIndex := int(e.now().Month()) - 1

	f := Forecast{
		Crop:   crop,
		Months: make([]string, 0, forecastMonths),
		Prices: make([]float64, 0, forecastMonths),
		Demand: make([]float64, 0, forecastMonths),
	}

	for i := 0; i < forecastMonths; i++ {
		monthIndex := (startIndex + i) % 12
		season := math.Sin(2 * math.Pi * float64(monthIndex+1) / 12)

		demand := base * (1 + seasonalSwing*season) * (1 + e.volatility())
		if demand < 1 {
			demand = 1
		}
		demand = math.Round(demand)

		price := e.priceScale / demand
		if price < priceFloor {
			price = priceFloor
		}
		price = math.Round(price*100) / 100

		f.Months = append(f.Months, monthNames[monthIndex])
		f.Demand = append(f.Demand, demand)
		f.Prices = append(f.Prices, price)
	}

	return f, nil
}

// EffectiveDemand aggregates each crop's mean forecast demand into the
// national demand table (tons) the optimizer consumes.
func (e *Economist) EffectiveDemand(ctx context.Context, crops []string) (map[string]float64, error) {
	out := make(map[string]float64, len(crops))
	for _, crop := range crops {
		f, err := e.ForecastMarket(ctx, crop)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, d := range f.Demand {
			sum += d
		}
		out[crop] = sum / float64(len(f.Demand))
	}
	return out, nil
}

// ScaleDemand proportionally rescales a demand table so its values sum to
// total. A table summing to zero (or a non-positive total) is returned as an
// unscaled copy.
func ScaleDemand(demand map[string]float64, total float64) map[string]float64 {
	out := make(map[string]float64, len(demand))
	var sum float64
	for _, v := range demand {
		sum += v
	}
	if sum <= 0 || total <= 0 {
		for k, v := range demand {
			out[k] = v
		}
		return out
	}
	factor := total / sum
	for k, v := range demand {
		out[k] = v * factor
	}
	return out
}

func (e *Economist) volatility() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return -volatilityBound + e.rng.Float64()*2*volatilityBound
}

func meanDemand(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Demand
	}
	return sum / float64(len(records))
}
