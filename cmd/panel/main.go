// Package main is the entry point for the minerpanel binary.
// The panel is a local control surface for a signum-miner process:
// it edits the miner's YAML config, starts and stops the miner, and
// shows its output.
package main

import (
	"minerpanel/cmd/panel/cmd"
	"os"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
