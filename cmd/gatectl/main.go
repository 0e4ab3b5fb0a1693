// Package main is the entry point for the gatectl CLI.
// gatectl runs pipelines locally, aggregates CI job results into a
// pass/fail gate decision, and talks to the pipegate controller API.
package main

import (
	"os"

	"pipegate/cmd/gatectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
