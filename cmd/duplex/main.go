package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/duplex-cli/duplex/internal/auth"
	"github.com/duplex-cli/duplex/internal/config"
	"github.com/duplex-cli/duplex/internal/log"
	"github.com/duplex-cli/duplex/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialise logger
	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// Set the default global logger
	log.SetDefaultLogger(logger)

	log.Info("Starting up Duplex", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code, err := auth.New(cfg).Run(ctx)
	if err != nil {
		log.Error("Authorization exchange failed", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "authorization exchange failed: %v\n", err)
		os.Exit(1)
	}

	// The code goes to stdout so the tool can be piped into whatever performs
	// the token exchange
	fmt.Println(code)

	log.Info("Duplex shutting down.  Goodbye!")
}
