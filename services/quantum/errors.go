// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package quantum

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the quantum package.
var (
	// ErrNilSnapshot is returned when a nil snapshot is passed to the optimizer.
	ErrNilSnapshot = errors.New("snapshot must not be nil")

	// ErrNilInitialState is returned when the scheduler receives no seed state.
	ErrNilInitialState = errors.New("initial state must not be nil")

	// ErrSchedulerReused is returned when Run is called twice on one scheduler.
	ErrSchedulerReused = errors.New("scheduler is single-use: create a new one per run")

	// ErrSnapshotMismatch is returned when a state belongs to a different snapshot.
	ErrSnapshotMismatch = errors.New("state was built from a different snapshot")
)

// FieldViolation describes one invalid field in an input table.
type FieldViolation struct {
	Field  string
	Reason string
}

func (v FieldViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// ValidationError reports every invalid field found while building an
// InputSnapshot or validating a Config. Callers match it with errors.As.
type ValidationError struct {
	Violations []FieldViolation
}

// Error returns the error message listing all violations.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// add records a violation against a named field.
func (e *ValidationError) add(field, format string, args ...any) {
	e.Violations = append(e.Violations, FieldViolation{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	})
}

// orNil returns the error if any violation was recorded, nil otherwise.
func (e *ValidationError) orNil() error {
	if len(e.Violations) > 0 {
		return e
	}
	return nil
}
