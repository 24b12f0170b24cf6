// Package main is the entry point for notectl.
package main

import (
	"os"

	"noteflow/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
