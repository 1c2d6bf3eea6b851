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

// EnergyFunction scores allocation states. Lower is better.
//
//	E(state) = sum over crops of gap(c)^2
//	         + lambda * sum over regions of (100 - feasibility(r, crop(r)))
//
//	gap(c) = projected supply of c - national demand for c
//
// Both overshoot and shortfall are penalized quadratically, so large
// imbalances dominate small ones. The feasibility term charges each region
// for the distance between its assigned crop's suitability and a perfect
// score; a missing feasibility pair scores 0 and therefore pays the full
// 100-point penalty.
//
// Pure computation: no I/O, no logging, no mutation of the state.
type EnergyFunction struct {
	snap   *InputSnapshot
	lambda float64
}

// NewEnergyFunction builds an energy function over snap with the given
// feasibility penalty weight. lambda = 0 reduces the objective to pure
// demand-gap matching.
func NewEnergyFunction(snap *InputSnapshot, lambda float64) *EnergyFunction {
	return &EnergyFunction{snap: snap, lambda: lambda}
}

// Total computes the full energy of a state by walking every crop and region.
// O(crops + regions). The scheduler calls this once per run; moves are then
// scored incrementally via Delta.
func (f *EnergyFunction) Total(s *AllocationState) float64 {
	var e float64
	for c := 0; c < f.snap.NumCrops(); c++ {
		gap := s.supplyAt(c) - f.snap.demand[c]
		e += gap * gap
	}
	if f.lambda != 0 {
		for r := 0; r < f.snap.NumRegions(); r++ {
			e += f.lambda * (100 - f.snap.feasibilityAt(r, s.CropAt(r)))
		}
	}
	return e
}

// Delta computes the energy change of reassigning region r to crop to,
// without mutating the state. O(1): only the two affected crop gaps and the
// one region's feasibility term move.
//
// Delta and Total agree: Total(after) - Total(before) == Delta(before, r, to)
// up to float64 rounding.
func (f *EnergyFunction) Delta(s *AllocationState, r, to int) float64 {
	from := s.CropAt(r)
	if from == to {
		return 0
	}
	cap := f.snap.regions[r].Capacity

	gapFrom := s.supplyAt(from) - f.snap.demand[from]
	gapFromAfter := gapFrom - cap
	gapTo := s.supplyAt(to) - f.snap.demand[to]
	gapToAfter := gapTo + cap

	delta := gapFromAfter*gapFromAfter - gapFrom*gapFrom +
		gapToAfter*gapToAfter - gapTo*gapTo

	if f.lambda != 0 {
		delta += f.lambda * (f.snap.feasibilityAt(r, from) - f.snap.feasibilityAt(r, to))
	}
	return delta
}
