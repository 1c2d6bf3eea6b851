// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package economist

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/Ghayda-Saify/agriq-hackathon/pkg/validation"
)

// Record is one observed market data point.
type Record struct {
	Date   time.Time
	Crop   string
	Price  float64
	Demand float64
}

// MarketSource provides trailing market history for a crop.
//
// An empty result is not an error; the economist falls back to its static
// demand base when no history exists.
type MarketSource interface {
	History(ctx context.Context, crop string, since time.Time) ([]Record, error)
}

// StaticSource serves history from an in-memory record set, typically the
// parsed market CSV.
type StaticSource struct {
	records []Record
}

// NewStaticSource copies the given records into a source.
func NewStaticSource(records []Record) *StaticSource {
	return &StaticSource{records: append([]Record(nil), records...)}
}

// History returns the crop's records on or after since, sorted by date.
func (s *StaticSource) History(_ context.Context, crop string, since time.Time) ([]Record, error) {
	var out []Record
	for _, r := range s.records {
		if r.Crop != crop || r.Date.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// InfluxConfig holds the connection parameters for the market bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxConfigFromEnv reads the InfluxDB configuration from the environment,
// falling back to the local development stack. This lets the CLI (running on
// the host) reach the compose-managed instance without extra flags.
func InfluxConfigFromEnv() InfluxConfig {
	cfg := InfluxConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
	if cfg.URL == "" {
		cfg.URL = "http://localhost:8086"
	}
	if cfg.Token == "" {
		cfg.Token = "your_super_secret_admin_token"
	}
	if cfg.Org == "" {
		cfg.Org = "agriq"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "market-data"
	}
	return cfg
}

// InfluxSource reads market history from InfluxDB.
type InfluxSource struct {
	cfg InfluxConfig
}

// NewInfluxSource builds a source over the given connection parameters.
func NewInfluxSource(cfg InfluxConfig) *InfluxSource {
	return &InfluxSource{cfg: cfg}
}

// History queries the market bucket for a crop's records since the given
// time. The crop name is validated before interpolation to prevent Flux
// injection.
func (s *InfluxSource) History(ctx context.Context, crop string, since time.Time) ([]Record, error) {
	if err := validation.ValidateCropName(crop); err != nil {
		return nil, fmt.Errorf("invalid crop: %w", err)
	}

	client := influxdb2.NewClient(s.cfg.URL, s.cfg.Token)
	defer client.Close()

	queryAPI := client.QueryAPI(s.cfg.Org)

	query := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: %s)
		  |> filter(fn: (r) => r._measurement == "market_prices")
		  |> filter(fn: (r) => r.crop == "%s")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"], desc: false)
	`, s.cfg.Bucket, since.Format(time.RFC3339), crop)

	result, err := queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("InfluxDB query failed: %w", err)
	}

	var records []Record
	for result.Next() {
		row := result.Record()
		rec := Record{Date: row.Time(), Crop: crop}
		if price, ok := row.ValueByKey("price").(float64); ok {
			rec.Price = price
		}
		if demand, ok := row.ValueByKey("demand_ton").(float64); ok {
			rec.Demand = demand
		}
		records = append(records, rec)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("error reading InfluxDB results: %w", result.Err())
	}

	return records, nil
}
