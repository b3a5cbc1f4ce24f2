package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	trackingservice "github.com/tanvirTheDev/GeoTrack-backend/cmd/tracking_service"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// global help before any mode parsing
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h") {
		cli.PrintUsage(os.Stdout)
		return 0
	}

	mode, svcArgs, err := cli.ParseMode(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		return 2
	}

	// cancelled on SIGINT/SIGTERM so the service shuts down gracefully
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case cli.ModeTracking:
		return runTracking(ctx, svcArgs)
	default:
		// unreachable, ParseMode rejects unknown modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode", mode)
		return 2
	}
}

func runTracking(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet(cli.ModeTracking, flag.ContinueOnError)
	prefetch := fs.Int("prefetch", 10, "RabbitMQ prefetch count for consumer channels")
	maxConc := fs.Int("max-concurrent", 500, "Maximum number of concurrent HTTP requests and live WebSocket sessions")
	cli.AttachUsage(fs, cli.ModeTracking)

	switch err := fs.Parse(args); {
	case err == flag.ErrHelp:
		return 0
	case err != nil:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
	if *prefetch <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
		fs.Usage()
		return 2
	}
	if *maxConc < 1 {
		fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
		fs.Usage()
		return 2
	}

	if err := trackingservice.Run(ctx, *prefetch, *maxConc); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
	return 0
}
