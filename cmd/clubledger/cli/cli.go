// Package cli implements the scriptable admin commands for the ledger.
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"clubledger/internal/config"
	"clubledger/internal/service"
	"clubledger/internal/storage"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, player, recompute, reindex")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "player":
		if len(args) < 2 {
			return fmt.Errorf("player subcommand required: add, list")
		}
		return runPlayer(args[1], args[2:])
	case "recompute":
		return runRecompute(args[1:])
	case "reindex":
		return runReindex(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// commonFlags registers the flags every subcommand shares, seeded from
// the environment.
func commonFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Ledger data directory")
	fs.StringVar(&cfg.IndexPath, "index", cfg.IndexPath, "Game index file")
	fs.StringVar(&cfg.Formula, "formula", cfg.Formula, "Rating formula: elo or glicko2")
}

func runInit(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	commonFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	timeControls, err := cfg.ParseTimeControls()
	if err != nil {
		return err
	}
	if len(timeControls) == 0 {
		return fmt.Errorf("no time controls configured; set CLUBLEDGER_TIME_CONTROLS")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := storage.Open(cfg.DataDir, cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if err := store.InitLayout(timeControls); err != nil {
		return fmt.Errorf("failed to initialize layout: %w", err)
	}

	fmt.Printf("Ledger initialized at: %s\n", cfg.DataDir)
	return nil
}

func runPlayer(sub string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("player "+sub, flag.ContinueOnError)
	commonFlags(fs, &cfg)
	name := fs.String("name", "", "Username (required for add)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, store, err := open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	switch sub {
	case "add":
		if *name == "" {
			return fmt.Errorf("username required")
		}
		if _, err := svc.CreatePlayer(*name); err != nil {
			return err
		}
		fmt.Printf("Player created: %s\n", *name)
		return nil
	case "list":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tTIME CONTROL\tRATING\tGAMES")
		for _, username := range svc.Players() {
			p, err := svc.Player(username)
			if err != nil {
				return err
			}
			if len(p.Ratings) == 0 {
				fmt.Fprintf(w, "%s\t-\t-\t-\n", username)
				continue
			}
			for _, tc := range svc.TimeControls() {
				r, ok := p.Ratings[tc.ID]
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%d\n", username, tc.ID, r.Rating, r.NumGames)
			}
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown player subcommand: %s", sub)
	}
}

func runRecompute(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("recompute", flag.ContinueOnError)
	commonFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, store, err := open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := svc.RecomputeAll(); err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}
	fmt.Println("All ratings recomputed")
	return nil
}

func runReindex(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("reindex", flag.ContinueOnError)
	commonFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(cfg.DataDir, cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	max, err := store.Reindex()
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Printf("Game index rebuilt; highest id %010d\n", max)
	return nil
}

func open(cfg config.Config) (*service.Service, *storage.Store, error) {
	formula, err := cfg.Function()
	if err != nil {
		return nil, nil, err
	}
	timeControls, err := cfg.ParseTimeControls()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(cfg.DataDir, cfg.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	svc, err := service.New(store, formula, timeControls)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return svc, store, nil
}
