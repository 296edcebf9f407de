// Command apiserver runs the scan API. It is cfdetect serve packaged as its
// own binary for container images.
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
	if err := cli.ExecuteArgs(append([]string{"serve"}, os.Args[1:]...)); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
