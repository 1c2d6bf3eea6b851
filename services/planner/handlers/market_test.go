// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Tests for market.go handlers

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ghayda-Saify/agriq-hackathon/services/economist"
)

func newMarketRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.GET("/api/market", HandleMarket(newTestEngine(t)))
	return router
}

// =============================================================================
// HandleMarket Tests
// =============================================================================

func TestHandleMarket_DefaultCrop(t *testing.T) {
	router := newMarketRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/market", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var fc economist.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "Tomato", fc.Crop)
	assert.Len(t, fc.Months, 6)
	assert.Len(t, fc.Prices, 6)
	assert.Len(t, fc.Demand, 6)
}

// TestHandleMarket_NormalizesCropCase verifies lookup is case-insensitive.
//
// The dashboard sends whatever the user typed; "wheat" and "Wheat" must hit
// the same history.
func TestHandleMarket_NormalizesCropCase(t *testing.T) {
	router := newMarketRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/market?crop=wheat", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var fc economist.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "Wheat", fc.Crop)
}

// TestHandleMarket_UnknownCropProjectsFromBase verifies the static fallback.
func TestHandleMarket_UnknownCropProjectsFromBase(t *testing.T) {
	router := newMarketRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/market?crop=Saffron", nil)
	router.ServeHTTP(w, req)

	// No history for saffron; the forecast still projects six months from
	// the base-price curve.
	require.Equal(t, http.StatusOK, w.Code)

	var fc economist.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "Saffron", fc.Crop)
	require.Len(t, fc.Prices, 6)
	for _, p := range fc.Prices {
		assert.Greater(t, p, 0.0)
	}
}

// TestHandleMarket_RejectsInvalidName verifies query sanitization.
func TestHandleMarket_RejectsInvalidName(t *testing.T) {
	router := newMarketRouter(t)

	for _, crop := range []string{
		"olive_oil",                         // underscore
		"Tomato%3Bdrop",                     // encoded semicolon
		"a-very-long-crop-name-that-exceeds-thirty", // too long
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/market?crop="+crop, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "crop %q should be rejected", crop)
	}
}
