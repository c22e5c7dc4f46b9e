// Package main implements the brewline-export tool.
// It loads a transaction snapshot and writes a self-contained SQLite
// star-schema database, optionally uploading it to object storage.
package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"github.com/brewline/brewline/internal/config"
	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/internal/mart"
	"github.com/brewline/brewline/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		snapshot   = flag.String("snapshot", "", "Path to the snapshot CSV (overrides config)")
		outDir     = flag.String("out", "", "Output directory for the export (overrides config)")
		uploadTo   = flag.String("upload-to", "", "Optional local object storage root to upload the export into")
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
	if *outDir != "" {
		cfg.Mart.Dir = *outDir
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	log.Printf("Loading snapshot from %s", cfg.Snapshot.Path)
	ds, err := dataset.LoadFile(cfg.Snapshot.Path)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}
	log.Printf("Loaded dataset %s: %d fact rows", ds.LoadID, ds.RowCount())

	exporter := mart.NewExporter(cfg.Mart.Dir)
	info, err := exporter.Export(ctx, ds)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Printf("Export %s written to %s (%d rows, %d bytes)",
		info.ExportID, info.Path, info.RowCount, info.SizeBytes)

	if err := mart.Verify(ctx, info.Path, ds); err != nil {
		log.Fatalf("Export verification failed: %v", err)
	}
	log.Printf("Export verified against source dataset")

	if *uploadTo != "" {
		store, err := storage.NewLocalStorage(*uploadTo)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		objectPath := filepath.Join("marts", filepath.Base(info.Path))
		if err := store.Upload(ctx, info.Path, objectPath); err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
		log.Printf("Export uploaded to %s", objectPath)
	}
}
