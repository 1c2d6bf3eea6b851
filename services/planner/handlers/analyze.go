// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides HTTP request handlers for the planner service.
package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/Ghayda-Saify/agriq-hackathon/services/agronomist"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/datatypes"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/observability"
)

// Create a new tracer
var plannerTracer = otel.Tracer("agriq.planner.handlers")

// HandleAnalyze ranks every catalog crop for one district's conditions.
//
// The request body is optional; missing fields fall back to the Jenin /
// Loamy / pH 6.5 defaults the frontend was built around. Unknown districts
// score against the Jenin climate profile.
func HandleAnalyze(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := plannerTracer.Start(c.Request.Context(), "HandleAnalyze")
		defer span.End()

		var req datatypes.AnalyzeRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				span.RecordError(err)
				recordRequest(observability.EndpointAnalyze, false)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		req.EnsureDefaults()

		profile := agronomist.SoilPreset(req.Soil)
		forecast := eng.Climate().SeasonalForecast(req.Location)

		scorer := eng.Scorer()
		scores := make([]datatypes.CropScore, 0, len(scorer.Crops()))
		for _, crop := range scorer.Crops() {
			score, err := scorer.Score(crop, profile, *req.PH, forecast)
			if err != nil {
				// Catalog crops always score; anything else is a bug.
				slog.Error("Crop scoring failed", "crop", crop, "error", err)
				span.RecordError(err)
				recordRequest(observability.EndpointAnalyze, false)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "scoring failed"})
				return
			}
			scores = append(scores, datatypes.CropScore{
				Crop:   crop,
				Score:  score,
				Status: agronomist.Status(score),
			})
		}
		sort.SliceStable(scores, func(i, j int) bool {
			return scores[i].Score > scores[j].Score
		})

		recordRequest(observability.EndpointAnalyze, true)
		c.JSON(http.StatusOK, datatypes.AnalyzeResponse{
			Location: req.Location,
			Soil:     req.Soil,
			PH:       *req.PH,
			Scores:   scores,
			Climate:  forecast,
		})
	}
}

// recordRequest tallies per-endpoint outcomes when metrics are enabled.
func recordRequest(endpoint observability.Endpoint, success bool) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, success)
	}
}
