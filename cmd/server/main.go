package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/arview/internal/config"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default ./arview.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	srv, cleanup, err := injector.InitializeServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating server:", err)
		os.Exit(1)
	}
	logger := log.Provide()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = srv.Run(ctx)
	stop()
	cleanup()
	_ = logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}
