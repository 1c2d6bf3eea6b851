// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Shared fixtures for handler tests.

package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Ghayda-Saify/agriq-hackathon/services/dataset"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const soilCSV = `District,N,P,K,ph,Crop,Yield_Ton
Jenin,60,40,50,6.5,Wheat,3.0
Jenin,80,50,60,6.8,Olive,4.0
Tulkarm,90,55,65,6.2,Tomato,2.5
Hebron,45,30,40,7.1,Grapes,2.0
`

const marketCSV = `Date,Crop,Price,Demand_Ton
2024-01-07,Wheat,5.2,960.5
2024-01-14,Olive,19.8,252.0
2024-01-21,Tomato,9.5,525.0
`

// newTestEngine loads a three-district dataset and wraps it in an engine
// with a fast annealing config.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dataset.SoilFile), []byte(soilCSV), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dataset.MarketFile), []byte(marketCSV), 0o644))

	store := dataset.NewStore(dir)
	require.NoError(t, store.Load())

	cfg := quantum.DefaultConfig()
	cfg.MaxIterations = 500
	return engine.New(store, cfg)
}

// newDegradedEngine wraps an empty store, as when the data directory is
// missing at startup.
func newDegradedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(dataset.NewStore(t.TempDir()), quantum.DefaultConfig())
}
