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
	"errors"
	"reflect"
	"testing"
)

func mustOptimizer(t *testing.T, cfg Config) *QuantumOptimizer {
	t.Helper()
	opt, err := NewQuantumOptimizer(cfg)
	if err != nil {
		t.Fatalf("NewQuantumOptimizer() error = %v", err)
	}
	return opt
}

func TestQuantumOptimizer_BalancedScenario(t *testing.T) {
	// Two regions, two crops, capacity 10 each, demand 10 each, feasibility
	// all 100: assigning one crop per region zeroes the energy. Both
	// labelings are global optima, so only the energy is asserted.
	snap := balancedSnapshot(t)
	opt := mustOptimizer(t, DefaultConfig())

	res, err := opt.Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if res.Energy != 0 {
		t.Errorf("Energy = %v, want 0", res.Energy)
	}
	if res.Confidence != 100 {
		t.Errorf("Confidence = %v, want 100", res.Confidence)
	}
	if res.Partial {
		t.Error("Partial = true on a completed run")
	}
	if res.PlanID == "" {
		t.Error("PlanID is empty")
	}
	if res.Assignment["A"] == res.Assignment["B"] {
		t.Errorf("both regions on %q, want one crop each", res.Assignment["A"])
	}
}

func TestQuantumOptimizer_HeatmapCoversEveryRegionOnce(t *testing.T) {
	snap := energyFixture(t)
	opt := mustOptimizer(t, DefaultConfig())

	res, err := opt.Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if len(res.Assignment) != snap.NumRegions() {
		t.Fatalf("Assignment has %d entries, want %d", len(res.Assignment), snap.NumRegions())
	}
	for _, region := range snap.Regions() {
		if _, ok := res.Assignment[region.Name]; !ok {
			t.Errorf("region %q missing from heatmap", region.Name)
		}
	}
}

func TestQuantumOptimizer_SingleCropDemand(t *testing.T) {
	// Demand {Wheat:0, Olive:20}: both regions must grow Olive for zero
	// energy; any region on Wheat pays twice (wheat surplus + olive gap).
	snap := mustSnapshot(t,
		[]Region{{Name: "A", Capacity: 10}, {Name: "B", Capacity: 10}},
		[]string{"Wheat", "Olive"},
		map[string]map[string]float64{
			"A": {"Wheat": 100, "Olive": 100},
			"B": {"Wheat": 100, "Olive": 100},
		},
		map[string]float64{"Wheat": 0, "Olive": 20},
	)
	opt := mustOptimizer(t, DefaultConfig())

	res, err := opt.Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if res.Energy != 0 {
		t.Errorf("Energy = %v, want 0", res.Energy)
	}
	want := map[string]string{"A": "Olive", "B": "Olive"}
	if !reflect.DeepEqual(res.Assignment, want) {
		t.Errorf("Assignment = %v, want %v", res.Assignment, want)
	}
}

func TestQuantumOptimizer_FeasibilityPenaltyChangesOptimum(t *testing.T) {
	// All demand on Alpha, but region A cannot grow it (feasibility 0).
	// With the penalty off, balance wins and A is assigned Alpha anyway.
	// With a heavy penalty, A flips to Beta despite the demand gap.
	snap := mustSnapshot(t,
		[]Region{{Name: "A", Capacity: 10}, {Name: "B", Capacity: 10}},
		[]string{"Alpha", "Beta"},
		map[string]map[string]float64{
			"A": {"Alpha": 0, "Beta": 100},
			"B": {"Alpha": 100, "Beta": 100},
		},
		map[string]float64{"Alpha": 20},
	)

	noPenalty := DefaultConfig()
	noPenalty.FeasibilityPenaltyWeight = 0
	resFree, err := mustOptimizer(t, noPenalty).Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if got := resFree.Assignment["A"]; got != "Alpha" {
		t.Errorf("lambda=0: A = %q, want Alpha (pure demand matching)", got)
	}
	if resFree.Energy != 0 {
		t.Errorf("lambda=0: Energy = %v, want 0", resFree.Energy)
	}

	heavy := DefaultConfig()
	heavy.FeasibilityPenaltyWeight = 10
	resHeavy, err := mustOptimizer(t, heavy).Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if got := resHeavy.Assignment["A"]; got != "Beta" {
		t.Errorf("lambda=10: A = %q, want Beta (penalty dominates)", got)
	}
}

func TestQuantumOptimizer_ZeroDemandPenalizesConcentration(t *testing.T) {
	// With zero demand everywhere, supply itself is charged quadratically,
	// so spreading two equal regions across two crops halves the energy of
	// a monoculture.
	snap := mustSnapshot(t,
		[]Region{{Name: "A", Capacity: 10}, {Name: "B", Capacity: 10}},
		[]string{"X", "Y"},
		map[string]map[string]float64{
			"A": {"X": 100, "Y": 100},
			"B": {"X": 100, "Y": 100},
		},
		nil,
	)
	opt := mustOptimizer(t, DefaultConfig())

	res, err := opt.Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if res.Energy != 200 {
		t.Errorf("Energy = %v, want 200 (10^2 + 10^2)", res.Energy)
	}
	if res.Assignment["A"] == res.Assignment["B"] {
		t.Errorf("both regions on %q, want a spread", res.Assignment["A"])
	}
}

func TestQuantumOptimizer_Deterministic(t *testing.T) {
	snap := energyFixture(t)
	cfg := DefaultConfig()
	cfg.RandomSeed = 99
	cfg.SeedPolicy = SeedRandom

	opt := mustOptimizer(t, cfg)
	a, err := opt.Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	b, err := opt.Optimize(context.Background(), snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if !reflect.DeepEqual(a.Assignment, b.Assignment) {
		t.Errorf("assignments differ: %v vs %v", a.Assignment, b.Assignment)
	}
	if a.Energy != b.Energy {
		t.Errorf("Energy differs: %v vs %v", a.Energy, b.Energy)
	}
	if a.Confidence != b.Confidence {
		t.Errorf("Confidence differs: %v vs %v", a.Confidence, b.Confidence)
	}
	if a.Iterations != b.Iterations {
		t.Errorf("Iterations differ: %d vs %d", a.Iterations, b.Iterations)
	}
	if a.StopReason != b.StopReason {
		t.Errorf("StopReason differs: %q vs %q", a.StopReason, b.StopReason)
	}
	// Plan ids identify runs, not plans: they must differ.
	if a.PlanID == b.PlanID {
		t.Errorf("PlanID repeated across runs: %q", a.PlanID)
	}
}

func TestQuantumOptimizer_CancelledContextReturnsPartial(t *testing.T) {
	snap := energyFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := mustOptimizer(t, DefaultConfig())
	res, err := opt.Optimize(ctx, snap)
	if err != nil {
		t.Fatalf("Optimize() error = %v, cancellation must not be an error", err)
	}

	if !res.Partial {
		t.Error("Partial = false, want true")
	}
	if res.StopReason != StopCancelled {
		t.Errorf("StopReason = %q, want %q", res.StopReason, StopCancelled)
	}
	if res.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", res.Iterations)
	}
	// The plan is the greedy seed, untouched.
	if got, want := res.Assignment, GreedySeed(snap).Assignment(); !reflect.DeepEqual(got, want) {
		t.Errorf("Assignment = %v, want greedy seed %v", got, want)
	}
}

func TestQuantumOptimizer_NilSnapshot(t *testing.T) {
	opt := mustOptimizer(t, DefaultConfig())
	if _, err := opt.Optimize(context.Background(), nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("Optimize(nil) error = %v, want ErrNilSnapshot", err)
	}
}

func TestNewQuantumOptimizer_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoolingRate = 7

	_, err := NewQuantumOptimizer(cfg)
	if err == nil {
		t.Fatal("NewQuantumOptimizer() should reject invalid config")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %T, want *ValidationError", err)
	}
}

func TestQuantumOptimizer_ProgressCallback(t *testing.T) {
	snap := energyFixture(t)
	cfg := DefaultConfig()
	cfg.ProgressInterval = 250

	var updates []Progress
	opt, err := NewQuantumOptimizer(cfg, WithProgress(func(p Progress) {
		updates = append(updates, p)
	}))
	if err != nil {
		t.Fatalf("NewQuantumOptimizer() error = %v", err)
	}

	if _, err := opt.Optimize(context.Background(), snap); err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if len(updates) == 0 {
		t.Fatal("no progress updates delivered")
	}
	for _, p := range updates {
		if p.Iteration%250 != 0 {
			t.Errorf("progress at iteration %d, want multiples of 250", p.Iteration)
		}
		if p.BestEnergy > p.CurrentEnergy {
			t.Errorf("BestEnergy %v above CurrentEnergy %v", p.BestEnergy, p.CurrentEnergy)
		}
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		energy   float64
		baseline float64
		want     float64
	}{
		{"perfect plan", 0, 500, 100},
		{"perfect plan, degenerate baseline", 0, 0, 100},
		{"halfway", 250, 500, 50},
		{"no better than baseline", 500, 500, 0},
		{"worse than baseline", 900, 500, 0},
		{"degenerate baseline, imperfect plan", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confidence(tt.energy, tt.baseline); got != tt.want {
				t.Errorf("confidence(%v, %v) = %v, want %v", tt.energy, tt.baseline, got, tt.want)
			}
		})
	}
}

func TestConfidence_MonotoneDecreasing(t *testing.T) {
	prev := confidence(0, 1000)
	for e := 50.0; e <= 1500; e += 50 {
		cur := confidence(e, 1000)
		if cur > prev {
			t.Fatalf("confidence increased from %v to %v at energy %v", prev, cur, e)
		}
		prev = cur
	}
}

func TestBestMonocultureEnergy(t *testing.T) {
	snap := energyFixture(t)

	// All-Wheat: gaps (20-8, -12, -5) -> 144+144+25 = 313; penalties
	// (10, 70) -> 80. All-Olive: (-8, 8, -5) -> 64+64+25 = 153; penalties
	// (60, 15) -> 75. All-Tomato: (-8, -12, 15) -> 64+144+225 = 433;
	// penalties (30, 100) -> 130. Best is all-Olive at 153 + 75 = 228.
	if got, want := bestMonocultureEnergy(snap, 1), 228.0; got != want {
		t.Errorf("bestMonocultureEnergy() = %v, want %v", got, want)
	}
}

func TestResult_RepresentativeCrop(t *testing.T) {
	res := &Result{SupplyTotals: map[string]float64{
		"Wheat":  12,
		"Olive":  30,
		"Tomato": 8,
	}}
	if got := res.RepresentativeCrop(); got != "Olive" {
		t.Errorf("RepresentativeCrop() = %q, want Olive", got)
	}

	tie := &Result{SupplyTotals: map[string]float64{
		"Wheat": 20,
		"Olive": 20,
	}}
	if got := tie.RepresentativeCrop(); got != "Olive" {
		t.Errorf("RepresentativeCrop() tie = %q, want Olive (lexicographic)", got)
	}
}
