// Package main implements the clubledger administration tool: the game
// ledger and rating engine behind the club's site, driven from a
// subcommand CLI or an interactive console.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"clubledger/cmd/clubledger/cli"
	"clubledger/internal/config"
	"clubledger/internal/service"
	"clubledger/internal/storage"
)

func main() {
	// Check for CLI admin commands
	if len(os.Args) > 1 && os.Args[1] != "console" && !isFlag(os.Args[1]) {
		if err := cli.Run(os.Args[1:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "console" {
		args = args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command-line flags override the environment
	var (
		dataDir   = flag.String("data", cfg.DataDir, "Ledger data directory")
		indexPath = flag.String("index", "", "Game index file (defaults to <data>/index.db)")
		formula   = flag.String("formula", cfg.Formula, "Rating formula: elo or glicko2")
	)
	flag.CommandLine.Parse(args)

	cfg.DataDir = *dataDir
	cfg.Formula = *formula
	if *indexPath != "" {
		cfg.IndexPath = *indexPath
	} else {
		cfg.IndexPath = filepath.Join(cfg.DataDir, "index.db")
	}

	formulaFn, err := cfg.Function()
	if err != nil {
		log.Fatalf("Failed to select rating formula: %v", err)
	}
	timeControls, err := cfg.ParseTimeControls()
	if err != nil {
		log.Fatalf("Failed to parse time controls: %v", err)
	}

	store, err := storage.Open(cfg.DataDir, cfg.IndexPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	svc, err := service.New(store, formulaFn, timeControls)
	if err != nil {
		log.Fatalf("Failed to load ledger: %v", err)
	}

	if err := runConsole(svc); err != nil {
		log.Fatalf("Console error: %v", err)
	}
}

func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}
