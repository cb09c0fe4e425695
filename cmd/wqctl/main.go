// Command wqctl scores water quality readings from the command line, using
// the same validation, scoring and export code as the service.
//
// Usage:
//
//	wqctl score samples.csv --csv scored.csv --pdf report.pdf
//	wqctl score                      # built-in sample dataset
//	wqctl form ph=7.2 hardness=204.89 ...
//	wqctl preview samples.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
