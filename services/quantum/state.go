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

import "math/rand"

// AllocationState is one candidate plan: exactly one crop per region, plus a
// running supply total per crop so single-region moves update in O(1).
//
// States reference their snapshot but never share mutable structure with it
// or with each other: Clone copies the assignment and the supply cache, and
// the snapshot itself is immutable. Mutating a clone cannot disturb the
// original, which the scheduler relies on for best-so-far tracking.
//
// Thread Safety: NOT safe for concurrent mutation. Each annealing run owns
// its states exclusively; parallel runs each build their own.
type AllocationState struct {
	snap *InputSnapshot

	// assignment[r] is the crop index assigned to region index r.
	assignment []int

	// supply[c] is the summed capacity of regions currently assigned crop c.
	supply []float64
}

// newState builds a state over snap with every region assigned crop index 0.
// Callers normally go through GreedySeed or RandomSeed instead.
func newState(snap *InputSnapshot) *AllocationState {
	st := &AllocationState{
		snap:       snap,
		assignment: make([]int, snap.NumRegions()),
		supply:     make([]float64, snap.NumCrops()),
	}
	for r := range st.assignment {
		st.supply[0] += snap.regions[r].Capacity
	}
	return st
}

// Clone deep-copies the state. The returned state shares only the immutable
// snapshot with the receiver.
func (s *AllocationState) Clone() *AllocationState {
	dup := &AllocationState{
		snap:       s.snap,
		assignment: make([]int, len(s.assignment)),
		supply:     make([]float64, len(s.supply)),
	}
	copy(dup.assignment, s.assignment)
	copy(dup.supply, s.supply)
	return dup
}

// CropAt returns the crop index assigned to region index r.
func (s *AllocationState) CropAt(r int) int { return s.assignment[r] }

// setCrop reassigns region r to crop c, keeping the supply cache current.
func (s *AllocationState) setCrop(r, c int) {
	prev := s.assignment[r]
	if prev == c {
		return
	}
	cap := s.snap.regions[r].Capacity
	s.supply[prev] -= cap
	s.supply[c] += cap
	s.assignment[r] = c
}

// Assignment returns the plan as a region name to crop name map.
func (s *AllocationState) Assignment() map[string]string {
	out := make(map[string]string, len(s.assignment))
	for r, c := range s.assignment {
		out[s.snap.regions[r].Name] = s.snap.crops[c]
	}
	return out
}

// SupplyTotals returns tons of projected supply per crop name, including
// crops with zero assigned supply.
func (s *AllocationState) SupplyTotals() map[string]float64 {
	out := make(map[string]float64, len(s.supply))
	for c, tons := range s.supply {
		out[s.snap.crops[c]] = tons
	}
	return out
}

// supplyAt is the index-based lookup used on the hot path.
func (s *AllocationState) supplyAt(c int) float64 { return s.supply[c] }

// GreedySeed builds the default initial state: each region takes its highest
// feasibility crop, ties broken by catalog order. Deterministic for a given
// snapshot, which keeps default runs reproducible end to end.
func GreedySeed(snap *InputSnapshot) *AllocationState {
	st := &AllocationState{
		snap:       snap,
		assignment: make([]int, snap.NumRegions()),
		supply:     make([]float64, snap.NumCrops()),
	}
	for r := 0; r < snap.NumRegions(); r++ {
		best := 0
		bestScore := snap.feasibilityAt(r, 0)
		for c := 1; c < snap.NumCrops(); c++ {
			if score := snap.feasibilityAt(r, c); score > bestScore {
				best, bestScore = c, score
			}
		}
		st.assignment[r] = best
		st.supply[best] += snap.regions[r].Capacity
	}
	return st
}

// RandomSeed builds an initial state with each region assigned a crop drawn
// uniformly from rng.
func RandomSeed(snap *InputSnapshot, rng *rand.Rand) *AllocationState {
	st := &AllocationState{
		snap:       snap,
		assignment: make([]int, snap.NumRegions()),
		supply:     make([]float64, snap.NumCrops()),
	}
	for r := 0; r < snap.NumRegions(); r++ {
		c := rng.Intn(snap.NumCrops())
		st.assignment[r] = c
		st.supply[c] += snap.regions[r].Capacity
	}
	return st
}
