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
	"context"
	"math"
	"math/rand"
	"sync/atomic"
)

// Phase is the scheduler lifecycle state.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseAnnealing    Phase = "annealing"
	PhaseConverged    Phase = "converged"
)

// StopReason records why an annealing run ended.
type StopReason string

const (
	// StopTemperatureFloor: the temperature cooled below min_temperature.
	StopTemperatureFloor StopReason = "temperature_floor"

	// StopIterationCap: the run hit max_iterations before cooling out.
	StopIterationCap StopReason = "iteration_cap"

	// StopCancelled: the context was cancelled; the result is partial.
	StopCancelled StopReason = "cancelled"

	// StopFrozen: no neighbor move exists (single-crop catalog), so the
	// seed state is already final.
	StopFrozen StopReason = "frozen"
)

// Progress is a point-in-time view of a running anneal, delivered to the
// progress callback every ProgressInterval iterations.
type Progress struct {
	Iteration     int     `json:"iteration"`
	Temperature   float64 `json:"temperature"`
	CurrentEnergy float64 `json:"current_energy"`
	BestEnergy    float64 `json:"best_energy"`
}

// ProgressFunc receives progress updates. It runs on the annealing goroutine,
// so it must be fast and must not block.
type ProgressFunc func(Progress)

// AnnealResult is the raw outcome of one scheduler run.
type AnnealResult struct {
	// Best is the lowest-energy state seen at any point during the walk.
	// It is a private clone: the caller owns it.
	Best *AllocationState

	// BestEnergy is the energy of Best.
	BestEnergy float64

	// Iterations is the number of loop steps executed.
	Iterations int

	// FinalTemperature is the temperature when the run stopped.
	FinalTemperature float64

	// Reason records why the run stopped.
	Reason StopReason
}

// AnnealingScheduler runs one simulated annealing walk to completion.
//
// The loop per iteration: draw a single-region move, score it incrementally,
// accept it if it lowers the energy or with Metropolis probability
// exp(-delta/T) if it raises it, then cool T geometrically. The best state
// ever visited is cloned aside on every improvement, so an uphill wander late
// in the run can never lose an earlier optimum.
//
// Randomness comes exclusively from the injected *rand.Rand; the global
// source is never touched. Identical seed, config, snapshot and initial
// state replay the identical walk.
//
// A scheduler is single-use: Run may be called exactly once. Create one
// scheduler per run and share nothing but the snapshot between runs.
type AnnealingScheduler struct {
	cfg      Config
	energy   *EnergyFunction
	neighbor *NeighborhoodGenerator
	rng      *rand.Rand

	onProgress ProgressFunc

	phase atomic.Value // Phase
	used  atomic.Bool
}

// SchedulerOption configures the scheduler.
type SchedulerOption func(*AnnealingScheduler)

// WithProgressFunc sets the progress callback. Only consulted when
// cfg.ProgressInterval > 0.
func WithProgressFunc(fn ProgressFunc) SchedulerOption {
	return func(s *AnnealingScheduler) {
		s.onProgress = fn
	}
}

// WithRand overrides the run's RNG. The default is a private source seeded
// from cfg.RandomSeed.
func WithRand(rng *rand.Rand) SchedulerOption {
	return func(s *AnnealingScheduler) {
		s.rng = rng
	}
}

// NewAnnealingScheduler builds a scheduler for one run over snap.
//
// Inputs:
//   - snap: Validated input snapshot. Must not be nil.
//   - cfg: Run configuration. Must have passed Validate.
//   - opts: Optional configuration functions.
//
// Outputs:
//   - *AnnealingScheduler: Ready to run once.
func NewAnnealingScheduler(snap *InputSnapshot, cfg Config, opts ...SchedulerOption) *AnnealingScheduler {
	s := &AnnealingScheduler{
		cfg:      cfg,
		energy:   NewEnergyFunction(snap, cfg.FeasibilityPenaltyWeight),
		neighbor: NewNeighborhoodGenerator(snap, cfg.ProposalPolicy),
		rng:      rand.New(rand.NewSource(cfg.RandomSeed)),
	}
	s.phase.Store(PhaseInitializing)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Phase returns the scheduler's current lifecycle phase. Safe to call from
// other goroutines while Run is in flight.
func (s *AnnealingScheduler) Phase() Phase {
	return s.phase.Load().(Phase)
}

// Run executes the annealing walk from initial until the temperature floor,
// the iteration cap, a frozen neighborhood, or context cancellation.
//
// Cancellation is not an error: the walk stops at the next iteration
// boundary and the best-so-far state comes back with Reason = StopCancelled.
// The caller decides whether a partial result is acceptable.
//
// Inputs:
//   - ctx: Context for cancellation. Checked every iteration.
//   - initial: Seed state. The scheduler clones it; the caller's copy is
//     never mutated.
//
// Outputs:
//   - *AnnealResult: Best state, energy, and stop bookkeeping.
//   - error: Non-nil only for misuse (nil state, reused scheduler).
func (s *AnnealingScheduler) Run(ctx context.Context, initial *AllocationState) (*AnnealResult, error) {
	if initial == nil {
		return nil, ErrNilInitialState
	}
	if !s.used.CompareAndSwap(false, true) {
		return nil, ErrSchedulerReused
	}

	s.phase.Store(PhaseAnnealing)
	defer s.phase.Store(PhaseConverged)

	curr := initial.Clone()
	currEnergy := s.energy.Total(curr)
	best := curr.Clone()
	bestEnergy := currEnergy

	temp := s.cfg.InitialTemperature
	iterations := 0
	reason := StopTemperatureFloor

	for temp >= s.cfg.MinTemperature {
		if iterations >= s.cfg.MaxIterations {
			reason = StopIterationCap
			break
		}
		if ctx.Err() != nil {
			reason = StopCancelled
			break
		}

		move, ok := s.neighbor.Propose(curr, s.rng)
		if !ok {
			reason = StopFrozen
			break
		}

		delta := s.energy.Delta(curr, move.Region, move.To)
		if delta <= 0 || s.rng.Float64() < math.Exp(-delta/temp) {
			curr.setCrop(move.Region, move.To)
			currEnergy += delta
			if currEnergy < bestEnergy {
				best = curr.Clone()
				bestEnergy = currEnergy
			}
		}

		temp *= s.cfg.CoolingRate
		iterations++

		if s.onProgress != nil && s.cfg.ProgressInterval > 0 && iterations%s.cfg.ProgressInterval == 0 {
			s.onProgress(Progress{
				Iteration:     iterations,
				Temperature:   temp,
				CurrentEnergy: currEnergy,
				BestEnergy:    bestEnergy,
			})
		}
	}

	return &AnnealResult{
		Best:             best,
		BestEnergy:       bestEnergy,
		Iterations:       iterations,
		FinalTemperature: temp,
		Reason:           reason,
	}, nil
}
