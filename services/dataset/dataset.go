// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads the field-sample and market-history files the
// planner runs on.
//
// The CSV formats follow the data pipeline that produced them: soil samples
// carry per-plot N-P-K, pH and observed yield; market history carries weekly
// price and demand per crop. Column order is header-driven, and a couple of
// legacy column names from earlier pipeline versions are accepted as
// aliases. Malformed rows are skipped and counted rather than failing the
// load; an empty file is an error.
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data file names inside the data directory.
const (
	SoilFile    = "soil_samples.csv"
	MarketFile  = "market_history.csv"
	RegionsFile = "regions.json"
)

// DefaultAreaFactor converts a district's mean yield (tons per dunam scale)
// into planning capacity (tons).
const DefaultAreaFactor = 40.0

// SoilSample is one field measurement row.
type SoilSample struct {
	District string
	N        float64
	P        float64
	K        float64
	PH       float64
	Crop     string
	YieldTon float64
}

// MarketRecord is one weekly market observation.
type MarketRecord struct {
	Date      time.Time
	Crop      string
	Price     float64
	DemandTon float64
}

// DistrictSummary aggregates a district's soil samples into the mean profile
// and planning capacity the optimizer consumes.
type DistrictSummary struct {
	District  string
	Samples   int
	MeanN     float64
	MeanP     float64
	MeanK     float64
	MeanPH    float64
	MeanYield float64
	Capacity  float64
}

// soilAliases maps normalized header names to canonical soil columns. The
// yield column was renamed between pipeline versions.
var soilAliases = map[string]string{
	"district":  "district",
	"n":         "n",
	"p":         "p",
	"k":         "k",
	"ph":        "ph",
	"crop":      "crop",
	"yield_ton": "yield",
	"yield":     "yield",
}

var soilRequired = []string{"district", "n", "p", "k", "ph", "crop", "yield"}

// marketAliases covers both the current and the legacy price column name.
var marketAliases = map[string]string{
	"date":          "date",
	"crop":          "crop",
	"price":         "price",
	"price_nis_ton": "price",
	"demand_ton":    "demand",
	"demand":        "demand",
}

var marketRequired = []string{"date", "crop", "price", "demand"}

// LoadSoilSamples reads and parses the soil samples file.
//
// Outputs:
//   - parsed samples
//   - count of malformed rows that were skipped
//   - a *DatasetError on open failure, missing columns, or an empty file
func LoadSoilSamples(path string) ([]SoilSample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DatasetError{Path: path, Reason: "open soil samples", Err: err}
	}
	defer f.Close()

	samples, skipped, err := ParseSoilSamples(f)
	if err != nil {
		var de *DatasetError
		if errors.As(err, &de) && de.Path == "" {
			de.Path = path
		}
		return nil, skipped, err
	}
	return samples, skipped, nil
}

// ParseSoilSamples parses soil sample CSV from a reader.
func ParseSoilSamples(r io.Reader) ([]SoilSample, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	cols, err := readColumns(reader, soilAliases, soilRequired)
	if err != nil {
		return nil, 0, err
	}

	var samples []SoilSample
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		sample, ok := parseSoilRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, skipped, &DatasetError{Reason: "no usable soil rows", Err: ErrEmptyDataset}
	}
	return samples, skipped, nil
}

// LoadMarketHistory reads and parses the market history file.
func LoadMarketHistory(path string) ([]MarketRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DatasetError{Path: path, Reason: "open market history", Err: err}
	}
	defer f.Close()

	records, skipped, err := ParseMarketHistory(f)
	if err != nil {
		var de *DatasetError
		if errors.As(err, &de) && de.Path == "" {
			de.Path = path
		}
		return nil, skipped, err
	}
	return records, skipped, nil
}

// ParseMarketHistory parses market history CSV from a reader.
func ParseMarketHistory(r io.Reader) ([]MarketRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	cols, err := readColumns(reader, marketAliases, marketRequired)
	if err != nil {
		return nil, 0, err
	}

	var records []MarketRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		record, ok := parseMarketRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, skipped, &DatasetError{Reason: "no usable market rows", Err: ErrEmptyDataset}
	}
	return records, skipped, nil
}

// AggregateSoil folds samples into per-district summaries. Capacity is the
// district's mean observed yield scaled by areaFactor.
func AggregateSoil(samples []SoilSample, areaFactor float64) map[string]DistrictSummary {
	type acc struct {
		n, p, k, ph, yield float64
		count              int
	}
	accs := make(map[string]*acc)
	for _, s := range samples {
		a, ok := accs[s.District]
		if !ok {
			a = &acc{}
			accs[s.District] = a
		}
		a.n += s.N
		a.p += s.P
		a.k += s.K
		a.ph += s.PH
		a.yield += s.YieldTon
		a.count++
	}

	out := make(map[string]DistrictSummary, len(accs))
	for district, a := range accs {
		n := float64(a.count)
		meanYield := a.yield / n
		out[district] = DistrictSummary{
			District:  district,
			Samples:   a.count,
			MeanN:     a.n / n,
			MeanP:     a.p / n,
			MeanK:     a.k / n,
			MeanPH:    a.ph / n,
			MeanYield: meanYield,
			Capacity:  meanYield * areaFactor,
		}
	}
	return out
}

// readColumns consumes the header row and resolves required column indexes
// through the alias table.
func readColumns(reader *csv.Reader, aliases map[string]string, required []string) (map[string]int, error) {
	header, err := reader.Read()
	if err == io.EOF {
		return nil, &DatasetError{Reason: "empty file", Err: ErrEmptyDataset}
	}
	if err != nil {
		return nil, &DatasetError{Reason: "read header", Err: err}
	}

	cols := make(map[string]int, len(required))
	for i, cell := range header {
		name, ok := aliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, &DatasetError{
				Reason: "missing column " + strconv.Quote(name),
				Err:    ErrMissingColumn,
			}
		}
	}
	return cols, nil
}

func parseSoilRow(row []string, cols map[string]int) (SoilSample, bool) {
	get := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	district, ok := get("district")
	if !ok || district == "" {
		return SoilSample{}, false
	}
	crop, ok := get("crop")
	if !ok || crop == "" {
		return SoilSample{}, false
	}

	nums := make(map[string]float64, 5)
	for _, name := range []string{"n", "p", "k", "ph", "yield"} {
		cell, ok := get(name)
		if !ok {
			return SoilSample{}, false
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return SoilSample{}, false
		}
		nums[name] = v
	}

	return SoilSample{
		District: district,
		N:        nums["n"],
		P:        nums["p"],
		K:        nums["k"],
		PH:       nums["ph"],
		Crop:     crop,
		YieldTon: nums["yield"],
	}, true
}

func parseMarketRow(row []string, cols map[string]int) (MarketRecord, bool) {
	get := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	dateCell, ok := get("date")
	if !ok {
		return MarketRecord{}, false
	}
	date, err := time.Parse("2006-01-02", dateCell)
	if err != nil {
		return MarketRecord{}, false
	}

	crop, ok := get("crop")
	if !ok || crop == "" {
		return MarketRecord{}, false
	}

	priceCell, ok := get("price")
	if !ok {
		return MarketRecord{}, false
	}
	price, err := strconv.ParseFloat(priceCell, 64)
	if err != nil {
		return MarketRecord{}, false
	}

	demandCell, ok := get("demand")
	if !ok {
		return MarketRecord{}, false
	}
	demand, err := strconv.ParseFloat(demandCell, 64)
	if err != nil {
		return MarketRecord{}, false
	}

	return MarketRecord{Date: date, Crop: crop, Price: price, DemandTon: demand}, true
}
