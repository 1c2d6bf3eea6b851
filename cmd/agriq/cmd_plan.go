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
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Ghayda-Saify/agriq-hackathon/pkg/validation"
	"github.com/Ghayda-Saify/agriq-hackathon/services/dataset"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// =============================================================================
// PLAN COMMAND
// =============================================================================

// planParams carries the plan command's effective inputs, decoupled from the
// flag globals so the core is testable.
type planParams struct {
	dataDir    string
	seed       int64
	iterations int
	lambda     float64
	runs       int
	demand     []string
}

// runPlan is the CLI handler for the "agriq plan" command.
//
// It loads the dataset directory, builds the optimizer snapshot and anneals
// one plan (or an ensemble with --runs), then prints a table on a TTY or
// JSON when piped or forced with --json.
//
// # Exit Codes
//
//   - 0: Plan completed
//   - 1: Plan is partial (the timeout cut the run short)
//   - 2: Error (unreadable dataset, invalid demand override, bad flags)
func runPlan(cmd *cobra.Command, args []string) {
	start := time.Now()

	cfg := OutputConfig{
		JSON:  planJSON || !stdoutIsTerminal(),
		Quiet: planQuiet,
	}

	ctx := context.Background()
	if planTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, planTimeout)
		defer cancel()
	}

	out, err := executePlan(ctx, planParams{
		dataDir:    planDataDir,
		seed:       planSeed,
		iterations: planIterations,
		lambda:     planLambda,
		runs:       planRuns,
		demand:     planDemand,
	})
	if err != nil {
		os.Exit(OutputResult(cfg, "plan", start, nil, false, err))
	}

	if !cfg.Quiet && !cfg.JSON {
		renderPlanTable(os.Stdout, out)
	}
	os.Exit(OutputResult(cfg, "plan", start, out, out.Plan.Partial, nil))
}

// executePlan runs the planning pipeline for the given parameters.
//
// # Inputs
//
//   - ctx: Bounds the whole run; expiry yields a partial plan, not an error.
//   - p: Effective command parameters.
//
// # Outputs
//
//   - *PlanOutput: The best plan plus run metadata.
//   - error: Non-nil on load, validation or configuration failure.
func executePlan(ctx context.Context, p planParams) (*PlanOutput, error) {
	if p.runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", p.runs)
	}

	demand, err := parseDemandOverrides(p.demand)
	if err != nil {
		return nil, err
	}

	store := dataset.NewStore(p.dataDir)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load dataset from %s: %w", p.dataDir, err)
	}

	cfg := quantum.DefaultConfig()
	if p.seed != 0 {
		cfg.RandomSeed = p.seed
	}
	if p.iterations > 0 {
		cfg.MaxIterations = p.iterations
	}
	if p.lambda > 0 {
		cfg.FeasibilityPenaltyWeight = p.lambda
	}

	eng := engine.New(store, cfg)
	snap, err := eng.BuildSnapshot(ctx, demand)
	if err != nil {
		return nil, err
	}

	out := &PlanOutput{Runs: p.runs}
	if p.runs > 1 {
		ens, err := eng.Ensemble(ctx, snap, cfg, p.runs)
		if err != nil {
			return nil, err
		}
		out.Plan = ens.Best
		out.Agreement = ens.Agreement
	} else {
		res, err := eng.Plan(ctx, snap, cfg, nil)
		if err != nil {
			return nil, err
		}
		out.Plan = res
	}

	out.Districts = len(out.Plan.Assignment)
	for _, tons := range out.Plan.SupplyTotals {
		if tons > 0 {
			out.Crops++
		}
	}
	return out, nil
}

// parseDemandOverrides turns repeated crop=tons flags into a demand table.
// Crop names go through the same sanitizer as the HTTP API, so shell input
// cannot smuggle odd characters into downstream queries.
func parseDemandOverrides(specs []string) (map[string]float64, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	demand := make(map[string]float64, len(specs))
	for _, spec := range specs {
		name, tonsStr, found := strings.Cut(spec, "=")
		if !found {
			return nil, fmt.Errorf("demand override %q must be crop=tons", spec)
		}
		crop, err := validation.SanitizeCropName(name)
		if err != nil {
			return nil, fmt.Errorf("demand override %q: %w", spec, err)
		}
		tons, err := strconv.ParseFloat(strings.TrimSpace(tonsStr), 64)
		if err != nil {
			return nil, fmt.Errorf("demand override %q: invalid tons value", spec)
		}
		if tons <= 0 {
			return nil, fmt.Errorf("demand override %q: tons must be > 0", spec)
		}
		demand[crop] = tons
	}
	return demand, nil
}

// renderPlanTable prints a plan in human-readable form.
func renderPlanTable(w io.Writer, out *PlanOutput) {
	plan := out.Plan

	fmt.Fprintf(w, "Plan %s  (%s after %d iterations in %s)\n\n",
		plan.PlanID, plan.StopReason, plan.Iterations, plan.Elapsed.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DISTRICT\tCROP")
	fmt.Fprintln(tw, "--------\t----")
	for _, district := range sortedKeys(plan.Assignment) {
		fmt.Fprintf(tw, "%s\t%s\n", district, plan.Assignment[district])
	}
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CROP\tSUPPLY (TONS)")
	fmt.Fprintln(tw, "----\t-------------")
	for _, crop := range sortedKeys(plan.SupplyTotals) {
		if plan.SupplyTotals[crop] <= 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.1f\n", crop, plan.SupplyTotals[crop])
	}
	tw.Flush()

	fmt.Fprintf(w, "\nEnergy:     %.2f (baseline %.2f)\n", plan.Energy, plan.BaselineEnergy)
	fmt.Fprintf(w, "Confidence: %.1f%%\n", plan.Confidence)
	if out.Runs > 1 {
		fmt.Fprintf(w, "Agreement:  %.1f%% across %d runs\n", out.Agreement*100, out.Runs)
	}
	if plan.Partial {
		fmt.Fprintln(w, "\nWarning: the timeout cut the run short; this plan is partial.")
	}
}

// sortedKeys returns map keys in lexical order for stable output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
