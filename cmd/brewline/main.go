// Package main implements the brewline query service binary.
// It loads a transaction snapshot into an in-memory star schema and
// serves aggregate queries over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brewline/brewline/internal/app"
	"github.com/brewline/brewline/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		snapshot   = flag.String("snapshot", "", "Path to the snapshot CSV (overrides config)")
		httpAddr   = flag.String("http-addr", "", "HTTP server address (overrides config)")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	if *snapshot != "" {
		cfg.Snapshot.Source = "local"
		cfg.Snapshot.Path = *snapshot
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	log.Printf("Starting brewline service...")
	log.Printf("Snapshot source: %s", cfg.Snapshot.Source)
	log.Printf("HTTP address: %s", cfg.HTTP.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Printf("Service error: %v", err)
		os.Exit(1)
	}

	log.Printf("brewline service stopped")
}
