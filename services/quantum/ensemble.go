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
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EnsembleResult aggregates several independent annealing runs over one
// snapshot.
type EnsembleResult struct {
	// Best is the lowest-energy run. Ties break toward the lowest run
	// index, so the pick is deterministic.
	Best *Result `json:"best"`

	// Results holds every run in seed order: run i used RandomSeed+i.
	Results []*Result `json:"results"`

	// Agreement is the fraction of runs whose assignment matches Best's
	// exactly. High agreement means the landscape funnels to one plan.
	Agreement float64 `json:"agreement"`
}

// RunEnsemble executes runs independent annealing walks in parallel and
// picks the best. Run i derives its seed as cfg.RandomSeed + i, so the
// ensemble as a whole is as reproducible as a single run.
//
// The runs share only the immutable snapshot; each builds its own RNG,
// states and scheduler. Concurrency is capped at GOMAXPROCS.
//
// Inputs:
//   - ctx: Context for cancellation; a cancelled ensemble yields partial runs.
//   - snap: Validated snapshot. Must not be nil.
//   - cfg: Base configuration, validated here.
//   - runs: Number of independent runs. Must be >= 1.
//
// Outputs:
//   - *EnsembleResult: Best run plus per-run results and agreement.
//   - error: Non-nil on invalid inputs.
func RunEnsemble(ctx context.Context, snap *InputSnapshot, cfg Config, runs int) (*EnsembleResult, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	if runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", runs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, runs)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < runs; i++ {
		i := i // per-iteration copy: required for correctness under go <= 1.21 loop semantics
		g.Go(func() error {
			runCfg := cfg
			runCfg.RandomSeed = cfg.RandomSeed + int64(i)

			opt, err := NewQuantumOptimizer(runCfg)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res, err := opt.Optimize(gCtx, snap)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Energy < best.Energy {
			best = r
		}
	}

	matching := 0
	for _, r := range results {
		if sameAssignment(r.Assignment, best.Assignment) {
			matching++
		}
	}

	return &EnsembleResult{
		Best:      best,
		Results:   results,
		Agreement: float64(matching) / float64(runs),
	}, nil
}

func sameAssignment(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for region, crop := range a {
		if b[region] != crop {
			return false
		}
	}
	return true
}
