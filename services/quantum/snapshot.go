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

import "fmt"

// Region is one allocatable production unit: a named area with the supply
// capacity (tons) it contributes to whichever crop it is assigned.
type Region struct {
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
}

// InputSnapshot is the immutable, validated input to an optimization run:
// the region list, the crop catalog, the feasibility table and the national
// demand table, frozen at construction time.
//
// The constructor deep-copies every input, so later mutation of the caller's
// slices or maps cannot affect a snapshot. Internally the tables are stored
// as dense index-based arrays so the energy function can evaluate moves in
// O(1) without map lookups.
//
// Thread Safety: Safe for concurrent use. A snapshot is never modified after
// NewInputSnapshot returns; any number of optimization runs may share one.
type InputSnapshot struct {
	regions []Region
	crops   []string

	regionIndex map[string]int
	cropIndex   map[string]int

	// feasibility[r][c] is the 0-100 suitability of crop c in region r.
	// Pairs absent from the caller's table are 0 (maximum penalty).
	feasibility [][]float64

	// demand[c] is the national demand (tons) for crop c. Crops absent
	// from the caller's table are 0.
	demand []float64
}

// NewInputSnapshot validates and freezes the optimizer inputs.
//
// Validation is fail-fast and exhaustive: every problem found is reported in
// a single *ValidationError rather than stopping at the first. Rejected:
// empty region or crop lists, blank or duplicate names, negative capacity,
// feasibility scores outside [0,100], feasibility or demand keys that name
// unknown regions or crops, and negative demand.
//
// A missing feasibility pair is NOT an error: it scores 0, the maximum
// penalty, so the annealer avoids it without the caller having to fill a
// dense table.
func NewInputSnapshot(
	regions []Region,
	crops []string,
	feasibility map[string]map[string]float64,
	demand map[string]float64,
) (*InputSnapshot, error) {
	verr := &ValidationError{}

	if len(regions) == 0 {
		verr.add("regions", "must not be empty")
	}
	if len(crops) == 0 {
		verr.add("crops", "must not be empty")
	}

	regionIndex := make(map[string]int, len(regions))
	for i, r := range regions {
		field := fmt.Sprintf("regions[%d]", i)
		if r.Name == "" {
			verr.add(field, "name must not be empty")
			continue
		}
		if _, dup := regionIndex[r.Name]; dup {
			verr.add(field, "duplicate region %q", r.Name)
			continue
		}
		if r.Capacity < 0 {
			verr.add(field, "capacity must be >= 0, got %v", r.Capacity)
		}
		regionIndex[r.Name] = i
	}

	cropIndex := make(map[string]int, len(crops))
	for i, c := range crops {
		field := fmt.Sprintf("crops[%d]", i)
		if c == "" {
			verr.add(field, "name must not be empty")
			continue
		}
		if _, dup := cropIndex[c]; dup {
			verr.add(field, "duplicate crop %q", c)
			continue
		}
		cropIndex[c] = i
	}

	feasDense := make([][]float64, len(regions))
	for i := range feasDense {
		feasDense[i] = make([]float64, len(crops))
	}
	for regionName, row := range feasibility {
		ri, ok := regionIndex[regionName]
		if !ok {
			verr.add("feasibility", "unknown region %q", regionName)
			continue
		}
		for cropName, score := range row {
			ci, ok := cropIndex[cropName]
			if !ok {
				verr.add("feasibility", "unknown crop %q for region %q", cropName, regionName)
				continue
			}
			if score < 0 || score > 100 {
				verr.add("feasibility",
					"score for (%s, %s) must be in [0,100], got %v", regionName, cropName, score)
				continue
			}
			feasDense[ri][ci] = score
		}
	}

	demandDense := make([]float64, len(crops))
	for cropName, tons := range demand {
		ci, ok := cropIndex[cropName]
		if !ok {
			verr.add("demand", "unknown crop %q", cropName)
			continue
		}
		if tons < 0 {
			verr.add("demand", "demand for %q must be >= 0, got %v", cropName, tons)
			continue
		}
		demandDense[ci] = tons
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	snap := &InputSnapshot{
		regions:     make([]Region, len(regions)),
		crops:       make([]string, len(crops)),
		regionIndex: regionIndex,
		cropIndex:   cropIndex,
		feasibility: feasDense,
		demand:      demandDense,
	}
	copy(snap.regions, regions)
	copy(snap.crops, crops)
	return snap, nil
}

// NumRegions returns the region count.
func (s *InputSnapshot) NumRegions() int { return len(s.regions) }

// NumCrops returns the crop catalog size.
func (s *InputSnapshot) NumCrops() int { return len(s.crops) }

// Regions returns a copy of the region list in snapshot order.
func (s *InputSnapshot) Regions() []Region {
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Crops returns a copy of the crop catalog in snapshot order.
func (s *InputSnapshot) Crops() []string {
	out := make([]string, len(s.crops))
	copy(out, s.crops)
	return out
}

// Region returns the region at index i.
func (s *InputSnapshot) Region(i int) Region { return s.regions[i] }

// Crop returns the crop name at index i.
func (s *InputSnapshot) Crop(i int) string { return s.crops[i] }

// Feasibility returns the 0-100 suitability of a crop in a region by name.
// Unknown names score 0, matching the missing-pair rule.
func (s *InputSnapshot) Feasibility(region, crop string) float64 {
	ri, ok := s.regionIndex[region]
	if !ok {
		return 0
	}
	ci, ok := s.cropIndex[crop]
	if !ok {
		return 0
	}
	return s.feasibility[ri][ci]
}

// Demand returns the national demand (tons) for a crop by name, 0 if unknown.
func (s *InputSnapshot) Demand(crop string) float64 {
	ci, ok := s.cropIndex[crop]
	if !ok {
		return 0
	}
	return s.demand[ci]
}

// TotalCapacity returns the summed capacity of all regions.
func (s *InputSnapshot) TotalCapacity() float64 {
	var total float64
	for _, r := range s.regions {
		total += r.Capacity
	}
	return total
}

// feasibilityAt is the index-based lookup used on the hot path.
func (s *InputSnapshot) feasibilityAt(region, crop int) float64 {
	return s.feasibility[region][crop]
}
