// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/handlers"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/middleware"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/observability"
)

// Options carries the wiring knobs SetupRoutes needs from the service config.
type Options struct {
	// OptimizeRPS and OptimizeBurst shape the per-client token bucket on
	// the optimize endpoints.
	OptimizeRPS   float64
	OptimizeBurst int

	// OptimizeTimeout bounds each annealing run.
	OptimizeTimeout time.Duration

	// EnableMetrics exposes /metrics.
	EnableMetrics bool
}

func SetupRoutes(router *gin.Engine, eng *engine.Engine, opts Options) {
	router.GET("/health", handlers.HealthCheck(eng))
	if opts.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Optimize runs burn real CPU, so they sit behind a per-client bucket;
	// the cheap read endpoints stay open.
	limiter := middleware.NewRateLimiter(opts.OptimizeRPS, opts.OptimizeBurst,
		middleware.WithRejectHook(func(path string) {
			if m := observability.DefaultMetrics; m != nil {
				endpoint := observability.EndpointOptimize
				if strings.HasSuffix(path, "/ws") {
					endpoint = observability.EndpointOptimizeWS
				}
				m.RecordRateLimited(endpoint)
			}
		}))

	api := router.Group("/api")
	{
		api.POST("/analyze", handlers.HandleAnalyze(eng))
		api.GET("/market", handlers.HandleMarket(eng))

		optimize := api.Group("/optimize", limiter.Middleware())
		{
			optimize.GET("", handlers.HandleOptimize(eng, opts.OptimizeTimeout))
			optimize.POST("", handlers.HandleOptimize(eng, opts.OptimizeTimeout))
			optimize.GET("/ws", handlers.HandleOptimizeWS(eng, opts.OptimizeTimeout))
		}
	}
}
