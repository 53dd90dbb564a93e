package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/pep299/trends-dashboard/internal/cli"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	root := cli.NewRootCommand(cli.Options{
		Build: cli.BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime},
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
