// Command worker consumes submitted scan jobs from Kafka and evaluates them.
package main

import (
	"os"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/cli"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version, cli.GitCommit, cli.BuildDate = version, commit, buildDate
	if err := cli.ExecuteArgs(append([]string{"worker"}, os.Args[1:]...)); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
