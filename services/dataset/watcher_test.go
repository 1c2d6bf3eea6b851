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
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestIsDataFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/soil_samples.csv", true},
		{"/data/market_history.csv", true},
		{"/data/regions.json", true},
		{"/data/notes.txt", false},
		{"/data/soil_samples.csv.tmp", false},
		{"soil_samples.csv", true},
	}

	for _, tt := range tests {
		if got := isDataFile(tt.path); got != tt.want {
			t.Errorf("isDataFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDedupePaths(t *testing.T) {
	got := dedupePaths([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupePaths() = %v, want %v", got, want)
	}
}

func TestWatcher_TriggersReload(t *testing.T) {
	dir := t.TempDir()
	reloaded := make(chan []string, 1)

	w, err := NewWatcher(dir, func(paths []string) {
		select {
		case reloaded <- paths:
		default:
		}
	}, &WatcherOptions{DebounceWindow: 50 * time.Millisecond, BufferSize: 16})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsWatching() {
		t.Error("IsWatching() = false after Start")
	}

	soilPath := filepath.Join(dir, SoilFile)
	if err := os.WriteFile(soilPath, []byte(soilCSV), 0o644); err != nil {
		t.Fatalf("write soil file: %v", err)
	}

	select {
	case paths := <-reloaded:
		found := false
		for _, p := range paths {
			if p == soilPath {
				found = true
			}
		}
		if !found {
			t.Errorf("reload paths = %v, want to include %s", paths, soilPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload not triggered within 5s")
	}
}

func TestWatcher_IgnoresNonDataFiles(t *testing.T) {
	dir := t.TempDir()
	reloaded := make(chan []string, 1)

	w, err := NewWatcher(dir, func(paths []string) {
		select {
		case reloaded <- paths:
		default:
		}
	}, &WatcherOptions{DebounceWindow: 50 * time.Millisecond, BufferSize: 16})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write notes file: %v", err)
	}
	regionsPath := filepath.Join(dir, RegionsFile)
	if err := os.WriteFile(regionsPath, []byte(regionsJSON), 0o644); err != nil {
		t.Fatalf("write regions file: %v", err)
	}

	select {
	case paths := <-reloaded:
		for _, p := range paths {
			if filepath.Base(p) == "notes.txt" {
				t.Errorf("reload paths %v include a non-data file", paths)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload not triggered within 5s")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.Stop()
	w.Stop()

	if w.IsWatching() {
		t.Error("IsWatching() = true after Stop")
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Errorf("second Start() error = %v, want nil no-op", err)
	}
}
