// Package main is the entry point for the iguana CLI tool.
package main

import (
	"os"

	"github.com/iguana-project/iguana/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
