// SPDX-License-Identifier: MIT
// Grounded on client/main.go's thin main: set build info on the cmd
// package, delegate everything else to cmd.Execute.
package main

import (
	"fmt"
	"os"

	"github.com/queued/queued/cmd/queued/cmd"
)

// Build-time variables, set via -ldflags.
var (
	Version   = "dev"
	CommitID  = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd.Version = Version
	cmd.CommitID = CommitID
	cmd.BuildDate = BuildDate
	cmd.BinaryName = "queued"

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
