package rating

import (
	"math"

	"clubledger/internal/core"

	elogo "github.com/kortemy/elo-go"
)

const (
	// DefaultInitialElo is the rating a new club member starts from.
	DefaultInitialElo = 1500

	// eloDeviation is the standard Elo spread factor.
	eloDeviation = 400

	// K factor schedule: provisional players move fast, established
	// players slower, masters barely.
	kProvisional       = 40
	kEstablished       = 20
	kMaster            = 10
	provisionalGames   = 30
	masterThresholdElo = 2400
)

// Elo is the club's default formula: standard Elo with a per-player K
// factor that shrinks as the player establishes a track record.
type Elo struct {
	elo     *elogo.Elo
	initial float64
}

// NewElo creates an Elo formula starting new players at initial.
func NewElo(initial float64) *Elo {
	return &Elo{
		elo:     elogo.NewEloWithFactors(kEstablished, eloDeviation),
		initial: initial,
	}
}

func (e *Elo) Name() string { return "elo" }

func (e *Elo) Initial() core.Rating {
	return core.Rating{Rating: e.initial}
}

func (e *Elo) Apply(result core.Result, white, black core.Rating) (core.Rating, core.Rating) {
	sw := score(result)
	wr := int(math.Round(white.Rating))
	br := int(math.Round(black.Rating))

	// Deltas are computed per side so each player uses their own K.
	wd := e.elo.RatingDeltaWithFactors(wr, br, sw, kFactor(white), eloDeviation)
	bd := e.elo.RatingDeltaWithFactors(br, wr, 1-sw, kFactor(black), eloDeviation)

	white.Rating = float64(wr + wd)
	black.Rating = float64(br + bd)
	tally(&white, sw)
	tally(&black, 1-sw)
	return white, black
}

// kFactor returns the K factor for a player's current rating state.
func kFactor(r core.Rating) int {
	switch {
	case r.NumGames < provisionalGames:
		return kProvisional
	case r.Rating >= masterThresholdElo:
		return kMaster
	default:
		return kEstablished
	}
}
