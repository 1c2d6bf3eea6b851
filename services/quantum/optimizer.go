// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package quantum implements the national crop-allocation optimizer.
//
// Given a snapshot of regions, crops, agronomic feasibility scores and
// national demand, it searches for an assignment of one crop per region that
// balances projected supply against demand while respecting suitability,
// using simulated annealing. The package is pure computation: no logging,
// no metrics, no I/O. Callers (the planner service, the CLI) own all
// observability around it.
//
// The usual entry point is the QuantumOptimizer facade:
//
//	snap, err := quantum.NewInputSnapshot(regions, crops, feasibility, demand)
//	if err != nil { ... }
//	opt, err := quantum.NewQuantumOptimizer(quantum.DefaultConfig())
//	if err != nil { ... }
//	result, err := opt.Optimize(ctx, snap)
//
// Lower-level pieces (EnergyFunction, NeighborhoodGenerator,
// AnnealingScheduler) are exported for callers that need custom loops or
// instrumentation.
package quantum

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Result is the packaged outcome of one optimization run.
type Result struct {
	// PlanID uniquely identifies this run's output.
	PlanID string `json:"plan_id"`

	// Assignment maps region name to assigned crop name.
	Assignment map[string]string `json:"assignment"`

	// SupplyTotals maps crop name to projected supply (tons) under
	// Assignment, including crops at zero.
	SupplyTotals map[string]float64 `json:"supply_totals"`

	// Energy is the objective value of Assignment. Lower is better.
	Energy float64 `json:"energy"`

	// BaselineEnergy is the energy of the best single-crop monoculture,
	// the naive plan Confidence is normalized against.
	BaselineEnergy float64 `json:"baseline_energy"`

	// Confidence grades the plan on [0,100]: 100 means a perfect plan
	// (zero energy), 0 means no better than the naive baseline. Strictly
	// decreasing in Energy between those ends.
	Confidence float64 `json:"confidence"`

	// Iterations is the number of annealing steps executed.
	Iterations int `json:"iterations"`

	// FinalTemperature is the temperature at termination.
	FinalTemperature float64 `json:"final_temperature"`

	// StopReason records how the run ended.
	StopReason StopReason `json:"stop_reason"`

	// Partial is true when the run was cancelled before converging; the
	// plan is the best seen up to that point.
	Partial bool `json:"partial"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// RepresentativeCrop returns the crop carrying the largest share of assigned
// supply, the single headline crop for summary views. Ties break
// lexicographically so the answer is stable.
func (r *Result) RepresentativeCrop() string {
	var best string
	var bestTons float64
	for crop, tons := range r.SupplyTotals {
		switch {
		case tons > bestTons:
			best, bestTons = crop, tons
		case tons == bestTons && (best == "" || crop < best):
			best = crop
		}
	}
	return best
}

// QuantumOptimizer is the run facade: it validates configuration once, then
// turns snapshots into Results.
//
// Thread Safety: Safe for concurrent use. Each Optimize call builds its own
// RNG, seed state and scheduler; concurrent calls share only the immutable
// config and snapshot.
type QuantumOptimizer struct {
	cfg        Config
	onProgress ProgressFunc
}

// OptimizerOption configures the optimizer.
type OptimizerOption func(*QuantumOptimizer)

// WithProgress sets a progress callback forwarded to every run. Only
// consulted when cfg.ProgressInterval > 0.
func WithProgress(fn ProgressFunc) OptimizerOption {
	return func(o *QuantumOptimizer) {
		o.onProgress = fn
	}
}

// NewQuantumOptimizer builds an optimizer with the given config.
//
// Outputs:
//   - *QuantumOptimizer: Ready for any number of Optimize calls.
//   - error: Non-nil when the config fails validation.
func NewQuantumOptimizer(cfg Config, opts ...OptimizerOption) (*QuantumOptimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &QuantumOptimizer{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Config returns the optimizer's configuration.
func (o *QuantumOptimizer) Config() Config { return o.cfg }

// Optimize runs one full annealing pass over snap.
//
// Cancellation mid-run is not an error: the Result comes back with
// Partial=true and the best plan found so far. Errors are reserved for
// unusable inputs.
//
// Inputs:
//   - ctx: Context for cancellation and deadlines.
//   - snap: Validated snapshot. Must not be nil.
//
// Outputs:
//   - *Result: The packaged plan.
//   - error: Non-nil on nil snapshot.
func (o *QuantumOptimizer) Optimize(ctx context.Context, snap *InputSnapshot) (*Result, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(o.cfg.RandomSeed))

	var initial *AllocationState
	if o.cfg.SeedPolicy == SeedRandom {
		initial = RandomSeed(snap, rng)
	} else {
		initial = GreedySeed(snap)
	}

	sched := NewAnnealingScheduler(snap, o.cfg,
		WithRand(rng),
		WithProgressFunc(o.onProgress),
	)
	run, err := sched.Run(ctx, initial)
	if err != nil {
		return nil, err
	}

	baseline := bestMonocultureEnergy(snap, o.cfg.FeasibilityPenaltyWeight)

	return &Result{
		PlanID:           uuid.New().String(),
		Assignment:       run.Best.Assignment(),
		SupplyTotals:     run.Best.SupplyTotals(),
		Energy:           run.BestEnergy,
		BaselineEnergy:   baseline,
		Confidence:       confidence(run.BestEnergy, baseline),
		Iterations:       run.Iterations,
		FinalTemperature: run.FinalTemperature,
		StopReason:       run.Reason,
		Partial:          run.Reason == StopCancelled,
		Elapsed:          time.Since(start),
	}, nil
}

// bestMonocultureEnergy is the confidence baseline: the lowest energy over
// the naive plans that assign every region the same crop. Deterministic in
// the snapshot, independent of any run.
func bestMonocultureEnergy(snap *InputSnapshot, lambda float64) float64 {
	energy := NewEnergyFunction(snap, lambda)
	best := 0.0
	for c := 0; c < snap.NumCrops(); c++ {
		st := newState(snap)
		for r := 0; r < snap.NumRegions(); r++ {
			st.setCrop(r, c)
		}
		e := energy.Total(st)
		if c == 0 || e < best {
			best = e
		}
	}
	return best
}

// confidence maps best energy to a [0,100] grade against the baseline:
//
//	confidence = 100 * clamp(1 - energy/baseline, 0, 1)
//
// Zero energy grades 100 regardless of baseline. A degenerate zero baseline
// (the naive plan is already perfect) grades 0 for anything worse.
func confidence(energy, baseline float64) float64 {
	if energy <= 0 {
		return 100
	}
	if baseline <= 0 {
		return 0
	}
	score := 100 * (1 - energy/baseline)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
