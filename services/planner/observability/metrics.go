// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the planner service.
//
// # Description
//
// Metrics cover the request surface and the optimizer runtime:
//   - Request counters (by endpoint, status)
//   - Optimization run counters (by stop reason) and duration histograms
//   - Final plan energy distribution
//   - Active run and websocket gauges
//   - Dataset reload counter
//   - Rate limiter rejections
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "agriq"

// Subsystem for planner metrics
const plannerSubsystem = "planner"

// PlannerMetrics holds all Prometheus metrics for the planner service.
//
// Initialize once at startup via InitMetrics(). All operations are
// thread-safe.
type PlannerMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (analyze, market, optimize, optimize_ws), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// OptimizeRunsTotal counts completed annealing runs by stop reason.
	// Labels: stop_reason (temperature_floor, iteration_cap, cancelled, frozen)
	OptimizeRunsTotal *prometheus.CounterVec

	// OptimizeDurationSeconds measures wall-clock annealing duration.
	// Labels: status (success, error)
	OptimizeDurationSeconds *prometheus.HistogramVec

	// PlanEnergy records the final best energy of completed runs. Watching
	// this distribution drift upward is the earliest sign of a demand table
	// out of step with capacity.
	PlanEnergy prometheus.Histogram

	// ActiveRuns tracks annealing runs currently in flight.
	ActiveRuns prometheus.Gauge

	// ActiveWebsockets tracks open optimize progress streams.
	ActiveWebsockets prometheus.Gauge

	// DatasetReloadsTotal counts dataset reloads by outcome.
	// Labels: status (success, error)
	DatasetReloadsTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected by the per-client limiter.
	// Labels: endpoint
	RateLimitedTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of PlannerMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PlannerMetrics

// InitMetrics creates and registers all planner metrics with the default
// Prometheus registry. Call once at startup; a second call panics on
// duplicate registration.
func InitMetrics() *PlannerMetrics {
	DefaultMetrics = &PlannerMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "requests_total",
				Help:      "Total API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		OptimizeRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "optimize_runs_total",
				Help:      "Completed annealing runs by stop reason",
			},
			[]string{"stop_reason"},
		),

		OptimizeDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "optimize_duration_seconds",
				Help:      "Wall-clock annealing run duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"status"},
		),

		PlanEnergy: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "plan_energy",
				Help:      "Final best energy of completed annealing runs",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),

		ActiveRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "active_runs",
				Help:      "Annealing runs currently in flight",
			},
		),

		ActiveWebsockets: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "active_websockets",
				Help:      "Open optimize progress websocket connections",
			},
		),

		DatasetReloadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "dataset_reloads_total",
				Help:      "Dataset reloads by outcome",
			},
			[]string{"status"},
		),

		RateLimitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-client rate limiter",
			},
			[]string{"endpoint"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint identifies an API surface for metrics labeling.
type Endpoint string

const (
	// EndpointAnalyze is the soil analysis endpoint.
	EndpointAnalyze Endpoint = "analyze"

	// EndpointMarket is the market forecast endpoint.
	EndpointMarket Endpoint = "market"

	// EndpointOptimize is the plain HTTP optimize endpoint.
	EndpointOptimize Endpoint = "optimize"

	// EndpointOptimizeWS is the websocket progress stream.
	EndpointOptimizeWS Endpoint = "optimize_ws"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed API request.
func (m *PlannerMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordOptimizeRun records a finished annealing run.
func (m *PlannerMetrics) RecordOptimizeRun(stopReason string, energy, seconds float64) {
	m.OptimizeRunsTotal.WithLabelValues(stopReason).Inc()
	m.OptimizeDurationSeconds.WithLabelValues("success").Observe(seconds)
	m.PlanEnergy.Observe(energy)
}

// RecordOptimizeError records a run that failed before producing a plan.
func (m *PlannerMetrics) RecordOptimizeError(seconds float64) {
	m.OptimizeDurationSeconds.WithLabelValues("error").Observe(seconds)
}

// RunStarted increments the active run gauge.
func (m *PlannerMetrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// RunEnded decrements the active run gauge.
func (m *PlannerMetrics) RunEnded() {
	m.ActiveRuns.Dec()
}

// WebsocketOpened increments the websocket gauge.
func (m *PlannerMetrics) WebsocketOpened() {
	m.ActiveWebsockets.Inc()
}

// WebsocketClosed decrements the websocket gauge.
func (m *PlannerMetrics) WebsocketClosed() {
	m.ActiveWebsockets.Dec()
}

// RecordReload records a dataset reload attempt.
func (m *PlannerMetrics) RecordReload(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.DatasetReloadsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimited records a request rejected by the limiter.
func (m *PlannerMetrics) RecordRateLimited(endpoint Endpoint) {
	m.RateLimitedTotal.WithLabelValues(string(endpoint)).Inc()
}
