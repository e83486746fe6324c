package main

import (
	"context"
	"os"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	root := newRootCmd(buildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit})
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
