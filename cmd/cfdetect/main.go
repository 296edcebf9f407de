// Command cfdetect is the counterfeit detection CLI: scan API server, Kafka
// worker, schema migrations and offline evaluation tools.
package main

import (
	"os"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
