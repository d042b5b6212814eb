package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"stepdojo/internal/app"

	"github.com/caarlos0/env/v11"
)

var version = "0.1.0"

func main() {
	cfg := app.DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("environment config: %v", err)
	}

	catalogDir := flag.String("catalog", cfg.CatalogDir, "Directory holding the puzzle catalog YAML files")
	dataDir := flag.String("data-dir", cfg.DataDir, "Directory for the history database")
	logPath := flag.String("log", cfg.LogPath, "Telemetry log path (NDJSON; empty disables)")
	domain := flag.String("domain", cfg.Domain, "Domain to preselect on the menu")
	seed := flag.Int64("seed", cfg.Seed, "RNG seed for puzzle sampling (0 = time-based)")
	theme := flag.String("theme", cfg.UI.Theme, "Theme variant: boardroom|paper|terminal_green")
	ascii := flag.Bool("ascii", cfg.ASCIIOnly, "Force ASCII panel borders")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "stepdojo [flags] | version\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.Arg(0) == "version" {
		fmt.Println("stepdojo", version)
		return
	}

	cfg.CatalogDir = *catalogDir
	cfg.DataDir = *dataDir
	cfg.LogPath = *logPath
	cfg.Domain = *domain
	cfg.Seed = *seed
	cfg.UI.Theme = *theme
	cfg.ASCIIOnly = *ascii
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("run: %v", err)
	}
}
