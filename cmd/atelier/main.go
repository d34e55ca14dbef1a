package main

import (
	"fmt"
	"os"
)

// Process entrypoint.
// Data flow:
// 1) Load config and build the logger.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Run the selected loop until SIGINT/SIGTERM.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "atelier:", err)
		os.Exit(1)
	}
}
