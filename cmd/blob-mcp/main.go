package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/blob-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	server.Version = Version
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "blob-mcp: %v\n", err)
		os.Exit(1)
	}
}
