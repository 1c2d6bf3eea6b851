// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ghayda-Saify/agriq-hackathon/services/planner"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

// runServe is the CLI handler for "agriq serve".
//
// It loads the planner configuration (file, then AGRIQ_* env overrides),
// builds the service and blocks on the HTTP server until shutdown.
//
// # Exit Codes
//
//   - 0: Server shut down cleanly
//   - 2: Error (invalid config, startup failure, server error)
func runServe(cmd *cobra.Command, args []string) {
	cfg, err := planner.LoadConfig(serveConfigPath)
	if err != nil {
		OutputError(false, "Failed to load config", err)
		os.Exit(CLIExitError)
	}

	svc, err := planner.New(cfg)
	if err != nil {
		OutputError(false, "Failed to start planner", err)
		os.Exit(CLIExitError)
	}

	slog.Info("Starting planner service",
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"watch_data", cfg.WatchData)

	if err := svc.Run(); err != nil {
		OutputError(false, "Server stopped", err)
		os.Exit(CLIExitError)
	}
}
