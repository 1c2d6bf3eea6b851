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
	"os"
	"time"

	"github.com/spf13/cobra"
)

// =============================================================================
// DATA GENERATE COMMAND
// =============================================================================

// runDataGenerate is the CLI handler for "agriq data generate".
//
// It synthesizes a soil-sample and market-history dataset into the output
// directory, ready for "agriq plan --data" or the planner service.
//
// # Exit Codes
//
//   - 0: Dataset written
//   - 2: Error (unwritable directory, invalid flags)
func runDataGenerate(cmd *cobra.Command, args []string) {
	start := time.Now()

	cfg := OutputConfig{
		JSON: generateJSON || !stdoutIsTerminal(),
	}

	out, err := generateDataset(generateOptions{
		OutDir: generateOut,
		Seed:   generateSeed,
		Years:  generateYears,
	})
	if err != nil {
		os.Exit(OutputResult(cfg, "data generate", start, nil, false, err))
	}

	if !cfg.JSON {
		fmt.Printf("Wrote %d soil samples to %s\n", out.SoilRows, out.SoilFile)
		fmt.Printf("Wrote %d market rows to %s\n", out.MarketRows, out.MarketFile)
		fmt.Printf("%d crops, %d year(s) of weekly prices, seed %d\n",
			out.Crops, out.Years, out.Seed)
	}
	os.Exit(OutputResult(cfg, "data generate", start, out, false, nil))
}
