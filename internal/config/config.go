// Package config loads engine settings from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"clubledger/internal/core"
	"clubledger/internal/rating"

	"github.com/caarlos0/env/v11"
)

// Config holds deployment settings. Command-line flags may override any
// field after Load.
type Config struct {
	// DataDir is the ledger root holding games/, graphs/, and users/.
	DataDir string `env:"CLUBLEDGER_DATA" envDefault:"data"`

	// IndexPath is the bbolt game-index file; empty means
	// <DataDir>/index.db.
	IndexPath string `env:"CLUBLEDGER_INDEX"`

	// Formula selects the rating formula: "elo" or "glicko2".
	Formula string `env:"CLUBLEDGER_FORMULA" envDefault:"elo"`

	// InitialRating is the Elo starting value for new players.
	InitialRating float64 `env:"CLUBLEDGER_INITIAL_RATING" envDefault:"1500"`

	// TimeControls lists the rated buckets as id=DisplayName pairs,
	// e.g. "blitz=Blitz,classical=Classical".
	TimeControls []string `env:"CLUBLEDGER_TIME_CONTROLS" envSeparator:","`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(cfg.DataDir, "index.db")
	}
	return cfg, nil
}

// ParseTimeControls expands the id=DisplayName pairs. A bare id doubles
// as its own display name.
func (c Config) ParseTimeControls() ([]core.TimeControl, error) {
	tcs := make([]core.TimeControl, 0, len(c.TimeControls))
	for _, entry := range c.TimeControls {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, found := strings.Cut(entry, "=")
		if id == "" {
			return nil, fmt.Errorf("invalid time control entry %q", entry)
		}
		if !found || name == "" {
			name = id
		}
		tcs = append(tcs, core.TimeControl{ID: id, Name: name})
	}
	return tcs, nil
}

// Function builds the configured rating formula.
func (c Config) Function() (rating.Function, error) {
	return rating.New(c.Formula, c.InitialRating)
}
