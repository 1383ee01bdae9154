// Command docsearch is the CLI front end for the hybrid document search
// engine: index a directory, query it directly or through a warm daemon,
// and inspect collection health and query telemetry.
package main

import (
	"fmt"
	"os"

	"github.com/doylet/docsearch/cmd/docsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
