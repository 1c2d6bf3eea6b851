// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine assembles optimizer inputs from the loaded dataset and runs
// national allocation plans.
//
// The engine is the seam between the data side of the system (dataset store,
// climate profiles, agronomist scoring, market forecasting) and the pure
// quantum optimizer: it turns district summaries into regions, scores the
// feasibility table, derives the national demand table, and hands the frozen
// snapshot to the annealer. Both the planner HTTP handlers and the CLI plan
// command run through it, so the two surfaces can never disagree about how a
// plan is built.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/Ghayda-Saify/agriq-hackathon/services/agronomist"
	"github.com/Ghayda-Saify/agriq-hackathon/services/climate"
	"github.com/Ghayda-Saify/agriq-hackathon/services/dataset"
	"github.com/Ghayda-Saify/agriq-hackathon/services/economist"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// ErrDatasetNotReady is returned when a plan is requested before the store
// has loaded a dataset.
var ErrDatasetNotReady = errors.New("engine: dataset not loaded")

// ErrMarketUnavailable wraps market-history lookup failures during demand
// derivation, so callers can map them to an upstream-outage response.
var ErrMarketUnavailable = errors.New("engine: market history unavailable")

// Engine builds optimization inputs from the loaded dataset and runs plans.
//
// Demand handling: when the caller supplies no demand table, the engine asks
// the economist for the effective forecast demand and rescales it so the
// national totals sum to the dataset's total capacity. The forecast fixes the
// demand mix between crops; planning allocates the land that actually exists.
// An explicit caller-supplied demand table is used verbatim, unscaled.
//
// Thread Safety: Safe for concurrent use. The store handles its own locking
// and every plan builds private optimizer state.
type Engine struct {
	store   *dataset.Store
	climate *climate.Service
	scorer  *agronomist.Scorer
	base    quantum.Config

	now func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithClimate replaces the climate service. Inject one with a seeded RNG for
// reproducible feasibility tables.
func WithClimate(svc *climate.Service) Option {
	return func(e *Engine) {
		e.climate = svc
	}
}

// WithScorer replaces the agronomist scorer.
func WithScorer(s *agronomist.Scorer) Option {
	return func(e *Engine) {
		e.scorer = s
	}
}

// WithClock overrides the time source handed to forecasters.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New builds an engine over a dataset store.
//
// Inputs:
//   - store: The dataset store. May be empty; plans fail with
//     ErrDatasetNotReady until it loads.
//   - base: The annealing configuration plans start from. Must have passed
//     Validate.
//   - opts: Optional configuration functions.
func New(store *dataset.Store, base quantum.Config, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		climate: climate.NewService(climate.WithRand(rand.New(rand.NewSource(base.RandomSeed)))),
		scorer:  agronomist.NewScorer(),
		base:    base,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ready reports whether the engine has a dataset to plan over.
func (e *Engine) Ready() bool {
	return e.store.Ready()
}

// BaseConfig returns the annealing configuration plans start from.
func (e *Engine) BaseConfig() quantum.Config { return e.base }

// Store returns the underlying dataset store.
func (e *Engine) Store() *dataset.Store { return e.store }

// Climate returns the climate service used for feasibility scoring.
func (e *Engine) Climate() *climate.Service { return e.climate }

// Scorer returns the agronomist scorer.
func (e *Engine) Scorer() *agronomist.Scorer { return e.scorer }

// Economist builds a market forecaster over the store's current market
// history. A fresh instance is built per call so dataset reloads are always
// visible; the volatility RNG is seeded from the base config, keeping
// forecasts reproducible for a fixed seed and clock.
func (e *Engine) Economist() *economist.Economist {
	opts := []economist.Option{
		economist.WithRand(rand.New(rand.NewSource(e.base.RandomSeed))),
		economist.WithClock(e.now),
	}
	if records := e.store.MarketRecords(); len(records) > 0 {
		opts = append(opts, economist.WithSource(marketSource(records)))
	}
	return economist.NewEconomist(opts...)
}

// BuildSnapshot assembles a validated optimizer snapshot from the loaded
// dataset.
//
// Inputs:
//   - ctx: Context for the demand forecast lookups.
//   - demand: Optional national demand table (tons). Empty or nil means
//     derive it from the economist's forecast, rescaled to total capacity.
//
// Outputs:
//   - *quantum.InputSnapshot: Frozen, validated inputs.
//   - error: ErrDatasetNotReady before the first load, a
//     *quantum.ValidationError for bad tables (for example an unknown crop
//     in the demand override), or a forecast failure.
func (e *Engine) BuildSnapshot(ctx context.Context, demand map[string]float64) (*quantum.InputSnapshot, error) {
	if !e.store.Ready() {
		return nil, ErrDatasetNotReady
	}

	summaries := e.store.Summaries()

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	regions := make([]quantum.Region, 0, len(names))
	soils := make(map[string]agronomist.DistrictSoil, len(names))
	for _, name := range names {
		sum := summaries[name]
		regions = append(regions, quantum.Region{Name: name, Capacity: sum.Capacity})
		soils[name] = agronomist.DistrictSoil{
			Profile: agronomist.SoilProfile{
				Nitrogen:   sum.MeanN,
				Phosphorus: sum.MeanP,
				Potassium:  sum.MeanK,
			},
			PH: sum.MeanPH,
		}
	}

	crops := e.scorer.Crops()
	feasibility := e.scorer.BuildFeasibilityTable(soils, e.climate)

	if len(demand) == 0 {
		effective, err := e.Economist().EffectiveDemand(ctx, crops)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarketUnavailable, err)
		}
		var total float64
		for _, r := range regions {
			total += r.Capacity
		}
		demand = economist.ScaleDemand(effective, total)
	}

	return quantum.NewInputSnapshot(regions, crops, feasibility, demand)
}

// Plan runs one annealing pass over snap with the given configuration.
//
// Inputs:
//   - ctx: Context for cancellation and deadlines; expiry yields a partial
//     result, not an error.
//   - snap: Snapshot from BuildSnapshot.
//   - cfg: Run configuration, validated here.
//   - progress: Optional progress callback; only consulted when
//     cfg.ProgressInterval > 0.
func (e *Engine) Plan(ctx context.Context, snap *quantum.InputSnapshot, cfg quantum.Config, progress quantum.ProgressFunc) (*quantum.Result, error) {
	var opts []quantum.OptimizerOption
	if progress != nil {
		opts = append(opts, quantum.WithProgress(progress))
	}
	opt, err := quantum.NewQuantumOptimizer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return opt.Optimize(ctx, snap)
}

// Ensemble runs several independent annealing walks in parallel and returns
// the best plus an agreement measure. Used by the CLI's --runs flag.
func (e *Engine) Ensemble(ctx context.Context, snap *quantum.InputSnapshot, cfg quantum.Config, runs int) (*quantum.EnsembleResult, error) {
	return quantum.RunEnsemble(ctx, snap, cfg, runs)
}

// marketSource adapts the dataset's market rows into the economist's history
// source.
func marketSource(records []dataset.MarketRecord) *economist.StaticSource {
	converted := make([]economist.Record, len(records))
	for i, r := range records {
		converted[i] = economist.Record{
			Date:   r.Date,
			Crop:   r.Crop,
			Price:  r.Price,
			Demand: r.DemandTon,
		}
	}
	return economist.NewStaticSource(converted)
}
