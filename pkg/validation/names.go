// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// database queries, file paths, or subprocess calls. Using these validators
// prevents injection attacks (Flux injection, command injection, path traversal).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// namePattern matches valid crop and district names.
// Allows: a leading letter, then letters, digits, single spaces or hyphens
// (e.g. "Tomato", "Kidney Beans", "Beit-Lahia").
// Max length: 30 characters.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(?:[ \-][A-Za-z0-9]+)*$`)

const maxNameLength = 30

// ValidateCropName validates a crop name to prevent Flux injection.
//
// Valid names:
//   - 1-30 characters
//   - Start with a letter
//   - Letters, digits, and single interior spaces or hyphens
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateCropName(crop); err != nil {
//	    return nil, fmt.Errorf("invalid crop: %w", err)
//	}
//	// Safe to use in a Flux query
func ValidateCropName(name string) error {
	if name == "" {
		return fmt.Errorf("crop name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("crop name too long: %d chars (max %d)", len(name), maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid crop name format: %q (letters, digits, interior spaces or hyphens only)", name)
	}
	return nil
}

// ValidateRegionName validates a district name used in queries and file paths.
// The format rules match ValidateCropName.
func ValidateRegionName(name string) error {
	if name == "" {
		return fmt.Errorf("region name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("region name too long: %d chars (max %d)", len(name), maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid region name format: %q (letters, digits, interior spaces or hyphens only)", name)
	}
	return nil
}

// ValidateCropNames validates multiple crop names.
// Returns an error listing all invalid names if any fail validation.
func ValidateCropNames(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateCropName(n); err != nil {
			invalid = append(invalid, n)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid crop names: %v", invalid)
	}
	return nil
}

// SanitizeCropName normalizes and validates a crop name.
// Returns the name trimmed and title-cased if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeCrop, err := validation.SanitizeCropName(userInput)
//	if err != nil {
//	    return err
//	}
//	// safeCrop is "Tomato"-cased and validated
func SanitizeCropName(name string) (string, error) {
	normalized := strings.TrimSpace(name)
	if normalized != "" {
		normalized = strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
	}
	if err := ValidateCropName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
