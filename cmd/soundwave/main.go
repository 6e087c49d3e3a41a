// Package main is the entry point for soundwave, a hand gesture volume
// controller.
//
// Usage:
//
//	soundwave [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the camera pipeline, HTTP API and tray menu
//	replay   - Feed a recorded session through the control engine
//	version  - Show version information
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ayusman/soundwave/cmd/soundwave/commands"
)

// The tray event loop must own the main OS thread on macOS.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
