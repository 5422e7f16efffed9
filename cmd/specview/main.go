// SpecView - interactive annotated spectrum viewer
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/SpecView/cmd/specview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
