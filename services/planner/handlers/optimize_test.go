// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Tests for optimize.go handlers

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/datatypes"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

func newOptimizeRouter(eng *engine.Engine, timeout time.Duration) *gin.Engine {
	router := gin.New()
	router.GET("/api/optimize", HandleOptimize(eng, timeout))
	router.POST("/api/optimize", HandleOptimize(eng, timeout))
	return router
}

// =============================================================================
// HandleOptimize Tests
// =============================================================================

// TestHandleOptimize_DefaultRun verifies a GET with no body runs a full plan.
func TestHandleOptimize_DefaultRun(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/optimize", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PlanID)
	assert.Len(t, resp.Heatmap, 3, "every district gets an assignment")
	assert.Equal(t, string(quantum.StopIterationCap), resp.StopReason)
	assert.Equal(t, 500, resp.Iterations)
	assert.False(t, resp.Partial)
	assert.NotEmpty(t, resp.Assignment.Crop)
	assert.Contains(t, resp.Assignment.Confidence, "%")
	assert.GreaterOrEqual(t, resp.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Confidence, 100.0)
}

// TestHandleOptimize_DeterministicAcrossRequests verifies replayability.
//
// # Description
//
// The base config carries a fixed seed, so two identical requests must
// produce the same assignment. Plan IDs still differ per run.
func TestHandleOptimize_DeterministicAcrossRequests(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	run := func() datatypes.OptimizeResponse {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/optimize", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp datatypes.OptimizeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	first := run()
	second := run()

	assert.Equal(t, first.Heatmap, second.Heatmap)
	assert.InDelta(t, first.Energy, second.Energy, 1e-12)
	assert.NotEqual(t, first.PlanID, second.PlanID)
}

// TestHandleOptimize_BodyOverrides verifies per-request config overlays.
func TestHandleOptimize_BodyOverrides(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	body := `{"max_iterations": 50, "demand": {"Wheat": 60, "Olive": 40}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Iterations, "per-request iteration cap applies")
}

// TestHandleOptimize_MalformedBody verifies bind failures return 400.
func TestHandleOptimize_MalformedBody(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/optimize", strings.NewReader(`{"max_iterations":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleOptimize_BindingRejectsBadCoolingRate verifies validator tags.
func TestHandleOptimize_BindingRejectsBadCoolingRate(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/optimize", strings.NewReader(`{"cooling_rate": 2.0}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleOptimize_UnknownDemandCrop verifies snapshot validation maps to 400.
func TestHandleOptimize_UnknownDemandCrop(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	body := `{"demand": {"Kale": 10}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

// TestHandleOptimize_InjectionDemandKey verifies hostile demand keys are
// screened at the datatypes boundary before any engine work runs.
func TestHandleOptimize_InjectionDemandKey(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	body := `{"demand": {"Wheat\"; drop(bucket:\"agri\")": 10}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

// TestHandleOptimize_ZeroDemandTons verifies explicit demand rows must carry
// positive tonnage, matching the CLI override rules.
func TestHandleOptimize_ZeroDemandTons(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), 30*time.Second)

	body := `{"demand": {"Wheat": 0}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleOptimize_DatasetNotReady verifies the degraded path returns 503.
func TestHandleOptimize_DatasetNotReady(t *testing.T) {
	router := newOptimizeRouter(newDegradedEngine(t), 30*time.Second)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/optimize", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "dataset not loaded")
}

// TestHandleOptimize_TimeoutReturnsPartial verifies interrupted runs.
//
// # Description
//
// A run cut by the request timeout is not an error: the handler answers
// 408 with the best plan found so far, marked partial, so the dashboard
// can render it with a warning.
func TestHandleOptimize_TimeoutReturnsPartial(t *testing.T) {
	router := newOptimizeRouter(newTestEngine(t), time.Nanosecond)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/optimize", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestTimeout, w.Code)

	var resp datatypes.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Partial)
	assert.Equal(t, string(quantum.StopCancelled), resp.StopReason)
	assert.Len(t, resp.Heatmap, 3, "partial results still carry the best-so-far plan")
}

// =============================================================================
// optimizeStatus Tests
// =============================================================================

// TestOptimizeStatus_Mapping verifies each error family lands on its code.
func TestOptimizeStatus_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "validation error",
			err: &quantum.ValidationError{Violations: []quantum.FieldViolation{
				{Field: "demand", Reason: "unknown crop"},
			}},
			want: http.StatusBadRequest,
		},
		{
			name: "dataset not ready",
			err:  engine.ErrDatasetNotReady,
			want: http.StatusServiceUnavailable,
		},
		{
			name: "market unavailable",
			err:  engine.ErrMarketUnavailable,
			want: http.StatusServiceUnavailable,
		},
		{
			name: "cancelled run",
			err:  context.Canceled,
			want: http.StatusRequestTimeout,
		},
		{
			name: "anything else",
			err:  assert.AnError,
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, optimizeStatus(tt.err))
		})
	}
}
