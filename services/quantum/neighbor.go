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

// ProposalPolicy selects how neighbor moves are drawn.
type ProposalPolicy string

const (
	// ProposalBiased is the default: the region is drawn uniformly, then
	// with probability 0.8 the replacement crop is drawn by roulette over
	// feasibility(r, c) + 1 and with probability 0.2 uniformly. The +1 and
	// the uniform floor keep every (region, crop) move at strictly positive
	// probability, so the chain can reach any state from any state.
	ProposalBiased ProposalPolicy = "biased"

	// ProposalUniform draws both the region and the replacement crop
	// uniformly. Slower to find good basins, useful as a baseline.
	ProposalUniform ProposalPolicy = "uniform"
)

// biasedUniformShare is the probability mass ProposalBiased reserves for the
// uniform floor.
const biasedUniformShare = 0.2

// Move is a single-region reassignment proposal.
type Move struct {
	Region int // region index
	From   int // current crop index
	To     int // proposed crop index, always != From
}

// NeighborhoodGenerator proposes single-region perturbations of a state.
// All moves change exactly one region to a different crop, which is the
// smallest step that changes the plan and what keeps Delta evaluation O(1).
type NeighborhoodGenerator struct {
	snap   *InputSnapshot
	policy ProposalPolicy
}

// NewNeighborhoodGenerator builds a generator over snap. An empty policy
// falls back to ProposalBiased.
func NewNeighborhoodGenerator(snap *InputSnapshot, policy ProposalPolicy) *NeighborhoodGenerator {
	if policy == "" {
		policy = ProposalBiased
	}
	return &NeighborhoodGenerator{snap: snap, policy: policy}
}

// Propose draws one candidate move from rng. Returns ok=false when no move
// exists, which happens exactly when the catalog has a single crop: every
// region already holds the only possible assignment.
func (g *NeighborhoodGenerator) Propose(s *AllocationState, rng *rand.Rand) (Move, bool) {
	nCrops := g.snap.NumCrops()
	if nCrops < 2 {
		return Move{}, false
	}

	r := rng.Intn(g.snap.NumRegions())
	from := s.CropAt(r)

	var to int
	if g.policy == ProposalBiased && rng.Float64() >= biasedUniformShare {
		to = g.rouletteCrop(r, from, rng)
	} else {
		to = g.uniformCrop(from, nCrops, rng)
	}

	return Move{Region: r, From: from, To: to}, true
}

// uniformCrop draws a crop index uniformly from the catalog minus the
// current crop. Drawing from nCrops-1 slots and shifting past the excluded
// index avoids rejection loops.
func (g *NeighborhoodGenerator) uniformCrop(exclude, nCrops int, rng *rand.Rand) int {
	c := rng.Intn(nCrops - 1)
	if c >= exclude {
		c++
	}
	return c
}

// rouletteCrop draws a crop index with probability proportional to
// feasibility(r, c) + 1 over all crops except the current one.
func (g *NeighborhoodGenerator) rouletteCrop(r, exclude int, rng *rand.Rand) int {
	var total float64
	for c := 0; c < g.snap.NumCrops(); c++ {
		if c == exclude {
			continue
		}
		total += g.snap.feasibilityAt(r, c) + 1
	}

	pick := rng.Float64() * total
	for c := 0; c < g.snap.NumCrops(); c++ {
		if c == exclude {
			continue
		}
		pick -= g.snap.feasibilityAt(r, c) + 1
		if pick < 0 {
			return c
		}
	}
	// Float rounding can leave pick at exactly 0 after the last weight.
	if exclude == g.snap.NumCrops()-1 {
		return g.snap.NumCrops() - 2
	}
	return g.snap.NumCrops() - 1
}
