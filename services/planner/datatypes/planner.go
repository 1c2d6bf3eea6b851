// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the request and response structures of the
// planner HTTP API. Binding tags carry the gin validator rules; defaults
// match what the dashboard form submits when a field is left blank.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Ghayda-Saify/agriq-hackathon/pkg/validation"
	"github.com/Ghayda-Saify/agriq-hackathon/services/climate"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// Defaults applied by EnsureDefaults when an analyze request omits fields.
const (
	DefaultLocation = "Jenin"
	DefaultSoilType = "Loamy"
	DefaultPH       = 6.5
)

// MaxDemandEntries caps the demand override table. The catalog carries seven
// crops; a table far larger than that is a malformed payload, not a plan.
const MaxDemandEntries = 30

// plannerValidate is the validator instance for planner datatypes.
// Initialized in init() with custom validators.
var plannerValidate *validator.Validate

func init() {
	plannerValidate = validator.New()

	// Register custom validator for demand table crop keys
	_ = plannerValidate.RegisterValidation("cropname", validateDemandCrop)
}

// validateDemandCrop screens demand map keys against the shared crop-name
// pattern, rejecting injection payloads before any lookups or flux queries
// see them. Well-formed names that are not in the catalog still fail later,
// when the snapshot is validated.
func validateDemandCrop(fl validator.FieldLevel) bool {
	return validation.ValidateCropName(fl.Field().String()) == nil
}

// ========== ANALYZE ==========

// AnalyzeRequest is the body of POST /api/analyze. Every field is optional;
// missing values fall back to the Jenin / Loamy / 6.5 defaults.
type AnalyzeRequest struct {
	Location string   `json:"location" binding:"omitempty,max=30"`
	Soil     string   `json:"soil" binding:"omitempty,max=30"`
	PH       *float64 `json:"ph" binding:"omitempty,gte=0,lte=14"`
}

// EnsureDefaults fills any missing field with its dashboard default.
func (r *AnalyzeRequest) EnsureDefaults() {
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.Soil == "" {
		r.Soil = DefaultSoilType
	}
	if r.PH == nil {
		ph := DefaultPH
		r.PH = &ph
	}
}

// CropScore is one ranked row of an analysis response.
type CropScore struct {
	Crop   string  `json:"crop"`
	Score  float64 `json:"score"`
	Status string  `json:"status"`
}

// AnalyzeResponse ranks every known crop for the requested conditions,
// best first, and echoes the seasonal forecast used for scoring.
type AnalyzeResponse struct {
	Location string           `json:"location"`
	Soil     string           `json:"soil"`
	PH       float64          `json:"ph"`
	Scores   []CropScore      `json:"scores"`
	Climate  climate.Forecast `json:"climate_info"`
}

// ========== OPTIMIZE ==========

// OptimizeRequest is the optional body of POST /api/optimize. A nil or empty
// body runs the plan with the service configuration; any field set here
// overrides the matching key for this run only.
type OptimizeRequest struct {
	// Demand replaces the economist-derived national demand table (tons).
	// Keys must be crops the agronomist knows.
	Demand map[string]float64 `json:"demand" binding:"omitempty" validate:"omitempty,max=30,dive,keys,cropname,endkeys,gt=0"`

	InitialTemperature       *float64 `json:"initial_temperature" binding:"omitempty,gt=0"`
	CoolingRate              *float64 `json:"cooling_rate" binding:"omitempty,gt=0,lt=1"`
	MinTemperature           *float64 `json:"min_temperature" binding:"omitempty,gt=0"`
	MaxIterations            *int     `json:"max_iterations" binding:"omitempty,gte=1"`
	FeasibilityPenaltyWeight *float64 `json:"feasibility_penalty_weight" binding:"omitempty,gte=0"`
	RandomSeed               *int64   `json:"random_seed"`
	SeedPolicy               *string  `json:"seed_policy" binding:"omitempty,oneof=greedy random"`
	ProposalPolicy           *string  `json:"proposal_policy" binding:"omitempty,oneof=biased uniform"`
	ProgressInterval         *int     `json:"progress_interval" binding:"omitempty,gte=0"`
}

// Validate checks the demand override beyond what binding tags can express:
// at most MaxDemandEntries rows, every key matching the crop-name pattern,
// every tonnage positive. Call after binding the JSON request.
func (r *OptimizeRequest) Validate() error {
	return plannerValidate.Struct(r)
}

// Apply overlays the request's overrides on base and returns the result.
// The base is not modified.
func (r *OptimizeRequest) Apply(base quantum.Config) quantum.Config {
	if r == nil {
		return base
	}
	if r.InitialTemperature != nil {
		base.InitialTemperature = *r.InitialTemperature
	}
	if r.CoolingRate != nil {
		base.CoolingRate = *r.CoolingRate
	}
	if r.MinTemperature != nil {
		base.MinTemperature = *r.MinTemperature
	}
	if r.MaxIterations != nil {
		base.MaxIterations = *r.MaxIterations
	}
	if r.FeasibilityPenaltyWeight != nil {
		base.FeasibilityPenaltyWeight = *r.FeasibilityPenaltyWeight
	}
	if r.RandomSeed != nil {
		base.RandomSeed = *r.RandomSeed
	}
	if r.SeedPolicy != nil {
		base.SeedPolicy = quantum.SeedPolicy(*r.SeedPolicy)
	}
	if r.ProposalPolicy != nil {
		base.ProposalPolicy = quantum.ProposalPolicy(*r.ProposalPolicy)
	}
	if r.ProgressInterval != nil {
		base.ProgressInterval = *r.ProgressInterval
	}
	return base
}

// AssignmentSummary is the headline block of an optimize response: the
// dominant crop of the plan and the confidence rendered the way the
// dashboard shows it ("97%").
type AssignmentSummary struct {
	Crop       string `json:"crop"`
	Confidence string `json:"confidence"`
}

// OptimizeResponse is the result of one annealing run.
type OptimizeResponse struct {
	PlanID     string            `json:"plan_id"`
	Assignment AssignmentSummary `json:"assignment"`

	// Heatmap is the full region to crop projection of the best state.
	Heatmap map[string]string `json:"heatmap"`

	Energy     float64 `json:"energy"`
	Confidence float64 `json:"confidence_score"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	StopReason string  `json:"stop_reason"`

	// Partial marks a result returned from an interrupted run. Only
	// present on 408 responses.
	Partial bool `json:"partial,omitempty"`
}

// NewOptimizeResponse projects an annealing result into the wire shape.
func NewOptimizeResponse(res *quantum.Result) OptimizeResponse {
	converged := res.StopReason == quantum.StopTemperatureFloor ||
		res.StopReason == quantum.StopFrozen
	crop := res.RepresentativeCrop()
	if crop == "" {
		crop = "None"
	}
	return OptimizeResponse{
		PlanID: res.PlanID,
		Assignment: AssignmentSummary{
			Crop:       crop,
			Confidence: fmt.Sprintf("%.0f%%", res.Confidence),
		},
		Heatmap:    res.Assignment,
		Energy:     res.Energy,
		Confidence: res.Confidence,
		Iterations: res.Iterations,
		Converged:  converged,
		StopReason: string(res.StopReason),
		Partial:    res.Partial,
	}
}

// ========== WEBSOCKET FRAMES ==========

// Frame type discriminators for the optimize websocket stream.
const (
	FrameProgress = "progress"
	FrameResult   = "result"
	FrameError    = "error"
)

// ProgressFrame is one streamed annealing update.
type ProgressFrame struct {
	Type          string  `json:"type"`
	Iteration     int     `json:"iteration"`
	Temperature   float64 `json:"temperature"`
	CurrentEnergy float64 `json:"current_energy"`
	BestEnergy    float64 `json:"best_energy"`
}

// NewProgressFrame wraps a scheduler progress sample for the wire.
func NewProgressFrame(p quantum.Progress) ProgressFrame {
	return ProgressFrame{
		Type:          FrameProgress,
		Iteration:     p.Iteration,
		Temperature:   p.Temperature,
		CurrentEnergy: p.CurrentEnergy,
		BestEnergy:    p.BestEnergy,
	}
}

// ResultFrame is the terminal websocket frame carrying the full plan.
type ResultFrame struct {
	Type string `json:"type"`
	OptimizeResponse
}

// ErrorFrame reports a failed run over the websocket.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
