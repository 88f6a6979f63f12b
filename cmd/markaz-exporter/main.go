// Package main is the entry point for the markaz-exporter CLI.
package main

import (
	"os"

	"github.com/maltedev/markaz-exporter/cmd/markaz-exporter/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
