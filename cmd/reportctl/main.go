// Package main is the entry point for the reportctl operator CLI.
package main

import (
	"os"

	"github.com/koperasi/backend/cmd/reportctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
