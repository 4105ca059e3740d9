// Command geodealer is the CLI for the geodealer location request
// orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/geodealer/cmd/geodealer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
