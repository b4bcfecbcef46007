package main

import (
	"os"

	"github.com/runnerr0/backtrail/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Run(version); err != nil {
		// go-flags has already printed the error.
		os.Exit(1)
	}
}
