// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"errors"
	"os"

	"github.com/tidwall/gjson"
)

// RegionOverride adjusts one district's aggregated values. Nil fields are
// left untouched. regions.json shape:
//
//	{
//	  "regions": [
//	    {"name": "Jenin", "capacity": 150, "n": 65, "p": 45, "k": 55, "ph": 6.8},
//	    {"name": "Jericho", "capacity": 80}
//	  ]
//	}
type RegionOverride struct {
	Name     string
	Capacity *float64
	N        *float64
	P        *float64
	K        *float64
	PH       *float64
}

// LoadRegionOverrides reads regions.json. A missing file is not an error;
// overrides are optional.
func LoadRegionOverrides(path string) ([]RegionOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &DatasetError{Path: path, Reason: "read regions file", Err: err}
	}

	overrides, err := ParseRegionOverrides(data)
	if err != nil {
		var de *DatasetError
		if errors.As(err, &de) && de.Path == "" {
			de.Path = path
		}
		return nil, err
	}
	return overrides, nil
}

// ParseRegionOverrides extracts overrides from regions JSON.
func ParseRegionOverrides(data []byte) ([]RegionOverride, error) {
	if !gjson.ValidBytes(data) {
		return nil, newDatasetError("", "regions file is not valid JSON")
	}

	regions := gjson.GetBytes(data, "regions")
	if !regions.Exists() || !regions.IsArray() {
		return nil, newDatasetError("", `regions file has no "regions" array`)
	}

	var out []RegionOverride
	regions.ForEach(func(_, region gjson.Result) bool {
		o := RegionOverride{Name: region.Get("name").String()}
		if o.Name == "" {
			return true
		}
		o.Capacity = floatField(region, "capacity")
		o.N = floatField(region, "n")
		o.P = floatField(region, "p")
		o.K = floatField(region, "k")
		o.PH = floatField(region, "ph")
		out = append(out, o)
		return true
	})
	return out, nil
}

// ApplyOverrides merges overrides into the district summaries in place.
//
// Outputs:
//   - how many overrides were applied
//   - the names that matched no district and were ignored
func ApplyOverrides(summaries map[string]DistrictSummary, overrides []RegionOverride) (int, []string) {
	applied := 0
	var ignored []string

	for _, o := range overrides {
		summary, ok := summaries[o.Name]
		if !ok {
			ignored = append(ignored, o.Name)
			continue
		}
		if o.Capacity != nil {
			summary.Capacity = *o.Capacity
		}
		if o.N != nil {
			summary.MeanN = *o.N
		}
		if o.P != nil {
			summary.MeanP = *o.P
		}
		if o.K != nil {
			summary.MeanK = *o.K
		}
		if o.PH != nil {
			summary.MeanPH = *o.PH
		}
		summaries[o.Name] = summary
		applied++
	}
	return applied, ignored
}

func floatField(region gjson.Result, key string) *float64 {
	v := region.Get(key)
	if !v.Exists() {
		return nil
	}
	f := v.Float()
	return &f
}
