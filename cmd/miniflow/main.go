// Package main provides the MiniFlow CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/miniflow/internal/app"
	"github.com/born-ml/miniflow/internal/cli"
	"github.com/born-ml/miniflow/internal/hclconfig"
)

const version = "v0.1.0"

// shutdownSignals cancel the run context.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and trains the configured network, writing logs to outW.
func run(ctx context.Context, outW io.Writer, args []string) error {
	if len(args) > 0 && args[0] == "version" {
		fmt.Fprintf(outW, "MiniFlow %s\n", version)
		return nil
	}

	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	return app.NewApp(outW, appConfig, hclconfig.NewLoader()).Run(ctx)
}
