// Package main provides the FishDoc command-line interface.
package main

import (
	"os"

	"github.com/aquastack-labs/fishdoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
