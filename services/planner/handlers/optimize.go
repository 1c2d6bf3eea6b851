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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ghayda-Saify/agriq-hackathon/services/dataset"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/datatypes"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/observability"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// HandleOptimize runs one annealing plan over the loaded dataset.
//
// Registered for both GET (dashboard refresh, all defaults) and POST, where
// the optional body may override the demand table and any annealing key for
// that run only. A run cut off by the timeout answers 408 and still carries
// the best plan found, flagged partial.
func HandleOptimize(eng *engine.Engine, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCtx, span := plannerTracer.Start(c.Request.Context(), "HandleOptimize",
			trace.WithAttributes(attribute.String("http.method", c.Request.Method)))
		defer span.End()

		var req datatypes.OptimizeRequest
		if c.Request.Method == http.MethodPost && c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				span.RecordError(err)
				recordRequest(observability.EndpointOptimize, false)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := req.Validate(); err != nil {
				span.RecordError(err)
				recordRequest(observability.EndpointOptimize, false)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		cfg := req.Apply(eng.BaseConfig())

		ctx, cancel := context.WithTimeout(reqCtx, timeout)
		defer cancel()

		if m := observability.DefaultMetrics; m != nil {
			m.RunStarted()
			defer m.RunEnded()
		}

		start := time.Now()
		res, err := runPlan(ctx, eng, cfg, req.Demand)
		if err != nil {
			slog.Error("Optimize run failed", "error", err)
			span.RecordError(err)
			recordRequest(observability.EndpointOptimize, false)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordOptimizeError(time.Since(start).Seconds())
			}
			c.JSON(optimizeStatus(err), gin.H{"error": err.Error()})
			return
		}

		span.SetAttributes(
			attribute.String("plan.id", res.PlanID),
			attribute.Float64("plan.energy", res.Energy),
			attribute.Int("plan.iterations", res.Iterations),
			attribute.String("plan.stop_reason", string(res.StopReason)),
		)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordOptimizeRun(string(res.StopReason), res.Energy, res.Elapsed.Seconds())
		}
		recordRequest(observability.EndpointOptimize, !res.Partial)

		status := http.StatusOK
		if res.Partial {
			// The deadline cut the walk short; the plan is usable but
			// unconverged.
			status = http.StatusRequestTimeout
		}
		slog.Info("Optimize run finished",
			"plan_id", res.PlanID,
			"energy", res.Energy,
			"confidence", res.Confidence,
			"iterations", res.Iterations,
			"stop_reason", res.StopReason,
			"partial", res.Partial,
			"elapsed", res.Elapsed,
		)
		c.JSON(status, datatypes.NewOptimizeResponse(res))
	}
}

// runPlan assembles the snapshot and executes one annealing pass.
func runPlan(ctx context.Context, eng *engine.Engine, cfg quantum.Config, demand map[string]float64) (*quantum.Result, error) {
	snap, err := eng.BuildSnapshot(ctx, demand)
	if err != nil {
		return nil, err
	}
	return eng.Plan(ctx, snap, cfg, nil)
}

// optimizeStatus maps plan failures onto HTTP statuses: bad inputs are the
// caller's fault, a missing dataset or market history is an upstream outage,
// and anything else is ours.
func optimizeStatus(err error) int {
	var verr *quantum.ValidationError
	var derr *dataset.DatasetError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrDatasetNotReady),
		errors.Is(err, engine.ErrMarketUnavailable),
		errors.As(err, &derr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
