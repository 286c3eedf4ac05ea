// Package main is the entry point for the parq CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/parq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
