// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors for dataset failures.
var (
	// ErrEmptyDataset indicates a data file had no usable rows.
	ErrEmptyDataset = errors.New("dataset: no usable rows")

	// ErrMissingColumn indicates a required CSV column was absent.
	ErrMissingColumn = errors.New("dataset: required column missing")
)

// DatasetError wraps a failure to load or parse a data file. Handlers map it
// to a 503 since the service cannot plan without its dataset.
type DatasetError struct {
	// Path is the file involved, empty when parsing a raw stream.
	Path string

	// Reason describes what went wrong.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

func (e *DatasetError) Error() string {
	msg := "dataset"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DatasetError) Unwrap() error {
	return e.Err
}

func newDatasetError(path, format string, args ...any) *DatasetError {
	return &DatasetError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
