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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ghayda-Saify/agriq-hackathon/pkg/logging"
)

// --- Global Command Variables ---
var (
	logLevel string // CLI override for the minimum log level
	logQuiet bool   // Suppress stderr logging (machine output stays on stdout)

	planDataDir    string
	planSeed       int64
	planIterations int
	planLambda     float64
	planRuns       int
	planTimeout    time.Duration
	planDemand     []string
	planJSON       bool
	planQuiet      bool

	generateOut   string
	generateSeed  int64
	generateYears int
	generateJSON  bool

	serveConfigPath string

	rootCmd = &cobra.Command{
		Use:   "agriq",
		Short: "A cli to plan national crop allocation with the AgriQ annealer",
		Long: `AgriQ plans which crop each agricultural district should grow by
				annealing a national allocation against soil chemistry, seasonal
				climate and market demand. The same engine backs the planner
				HTTP service and the one-shot plan command.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v, using info\n", err)
			}
			logger := logging.New(logging.Config{
				Level:   level,
				Service: "cli",
				Quiet:   logQuiet,
			})
			slog.SetDefault(logger.Slog())
		},
	}

	// --- Planning ---
	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Run a one-shot allocation plan over a local dataset",
		Run:   runPlan, // Defined in cmd_plan.go
	}

	// --- Data ---
	dataCmd = &cobra.Command{
		Use:   "data",
		Short: "Dataset utilities for the planner input files",
	}
	dataGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Synthesize soil_samples.csv and market_history.csv from the crop catalog",
		Run:   runDataGenerate, // Defined in cmd_data.go
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP service",
		Run:   runServe, // Defined in cmd_serve.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Minimum log level: debug, info, warn or error (default info)")
	rootCmd.PersistentFlags().BoolVar(&logQuiet, "log-quiet", false,
		"Suppress stderr logging; command output on stdout is unaffected")

	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planDataDir, "data", "./data",
		"Dataset directory holding soil_samples.csv and market_history.csv")
	planCmd.Flags().Int64Var(&planSeed, "seed", 0, "Random seed (0 keeps the config default)")
	planCmd.Flags().IntVar(&planIterations, "iterations", 0, "Annealing iteration cap (0 keeps the config default)")
	planCmd.Flags().Float64Var(&planLambda, "lambda", 0, "Feasibility penalty weight (0 keeps the config default)")
	planCmd.Flags().IntVar(&planRuns, "runs", 1, "Independent annealing runs; the best plan wins")
	planCmd.Flags().DurationVar(&planTimeout, "timeout", 2*time.Minute, "Wall-clock bound for the whole run")
	planCmd.Flags().StringArrayVar(&planDemand, "demand", nil,
		"National demand override as crop=tons, repeatable (default: derived from market history)")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Force JSON output even on a TTY")
	planCmd.Flags().BoolVar(&planQuiet, "quiet", false, "No output, exit code only")

	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataGenerateCmd)
	dataGenerateCmd.Flags().StringVar(&generateOut, "out", "./data", "Output directory for the generated files")
	dataGenerateCmd.Flags().Int64Var(&generateSeed, "seed", 42, "Random seed for the synthesis")
	dataGenerateCmd.Flags().IntVar(&generateYears, "years", 4, "Years of weekly market history to generate")
	dataGenerateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output a JSON summary instead of text")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "",
		"Path to a YAML/JSON service config file (AGRIQ_* env vars overlay it)")
}
