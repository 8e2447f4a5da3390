// Package main is the entry point for the rentai CLI.
package main

import (
	"os"

	"rentaiagent/cmd/cli/cmd"
	"rentaiagent/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
