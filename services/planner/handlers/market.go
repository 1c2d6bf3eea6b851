// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ghayda-Saify/agriq-hackathon/pkg/validation"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/observability"
)

// defaultMarketCrop is what the dashboard's market panel opens on.
const defaultMarketCrop = "Tomato"

// HandleMarket serves the six-month price and demand projection for one crop
// (?crop=Name, default Tomato).
func HandleMarket(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := plannerTracer.Start(c.Request.Context(), "HandleMarket")
		defer span.End()

		crop, err := validation.SanitizeCropName(c.DefaultQuery("crop", defaultMarketCrop))
		if err != nil {
			span.RecordError(err)
			recordRequest(observability.EndpointMarket, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		forecast, err := eng.Economist().ForecastMarket(ctx, crop)
		if err != nil {
			slog.Error("Market forecast failed", "crop", crop, "error", err)
			span.RecordError(err)
			recordRequest(observability.EndpointMarket, false)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market history unavailable"})
			return
		}

		recordRequest(observability.EndpointMarket, true)
		c.JSON(http.StatusOK, forecast)
	}
}
