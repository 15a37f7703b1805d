// Package rating defines the pluggable rating formula interface and the
// formulas shipped with the engine.
package rating

import (
	"fmt"

	"clubledger/internal/core"
)

// Function is a pure rating formula. Apply maps a game result plus both
// players' pre-game ratings to their post-game ratings; it must be
// deterministic so that replaying a game history always reproduces the
// same values.
type Function interface {
	// Name identifies the formula in configuration and player files.
	Name() string

	// Initial is the rating assigned to a player before their first game.
	Initial() core.Rating

	// Apply computes post-game ratings from the result and the pre-game
	// ratings of White and Black.
	Apply(result core.Result, white, black core.Rating) (core.Rating, core.Rating)
}

// New returns the named formula, or an error for an unknown name.
func New(name string, initial float64) (Function, error) {
	switch name {
	case "elo", "":
		return NewElo(initial), nil
	case "glicko2":
		return NewGlicko2(), nil
	default:
		return nil, fmt.Errorf("unknown rating formula %q", name)
	}
}

// score returns White's match score for the result.
func score(result core.Result) float64 {
	switch result {
	case core.WhiteWins:
		return 1
	case core.BlackWins:
		return 0
	default:
		return 0.5
	}
}

// tally bumps a rating's game counters for the given score.
func tally(r *core.Rating, s float64) {
	r.NumGames++
	switch s {
	case 1:
		r.Won++
	case 0:
		r.Lost++
	default:
		r.Drawn++
	}
}
