package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Elpulgo/azdo-prtree/internal/cli"
	"github.com/Elpulgo/azdo-prtree/internal/version"
)

// Build-time variables injected via ldflags by goreleaser.
var (
	buildVersion = "dev"
	commit       = "none"
	date         = "unknown"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Build: version.Info{Version: buildVersion, Commit: commit, Date: date},
	}
	return app.Execute(ctx, args[1:])
}
