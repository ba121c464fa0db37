// Command unrealpm is the CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/unrealpm/unrealpm/internal/cli"
)

// version, commit, and date are set at build time via:
//
//	go build -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}
