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
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
)

// HealthCheck reports liveness and dataset readiness. The service is degraded
// (503) until a dataset loads, since optimize cannot run without one.
func HealthCheck(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !eng.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"reason": "dataset not loaded",
			})
			return
		}

		store := eng.Store()
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"districts": len(store.Summaries()),
			"loaded_at": store.LoadedAt().UTC().Format(time.RFC3339),
		})
	}
}
