package rating

import (
	"clubledger/internal/core"

	glicko "github.com/zelenin/go-glicko2"
)

const (
	glickoInitialRating     = 1500
	glickoInitialDeviation  = 350
	glickoInitialVolatility = 0.06
)

// Glicko2 rates each game as its own rating period. Treating single
// games as periods loses some of Glicko-2's batching accuracy but keeps
// the formula a pure per-game function, which the replay engine
// requires.
type Glicko2 struct{}

// NewGlicko2 creates a Glicko-2 formula with the standard defaults.
func NewGlicko2() *Glicko2 {
	return &Glicko2{}
}

func (g *Glicko2) Name() string { return "glicko2" }

func (g *Glicko2) Initial() core.Rating {
	return core.Rating{
		Rating:     glickoInitialRating,
		Deviation:  glickoInitialDeviation,
		Volatility: glickoInitialVolatility,
	}
}

func (g *Glicko2) Apply(result core.Result, white, black core.Rating) (core.Rating, core.Rating) {
	pw := glicko.NewPlayer(glicko.NewRating(white.Rating, white.Deviation, white.Volatility))
	pb := glicko.NewPlayer(glicko.NewRating(black.Rating, black.Deviation, black.Volatility))

	period := glicko.NewRatingPeriod()
	period.AddMatch(pw, pb, matchResult(result))
	period.Calculate()

	sw := score(result)
	white.Rating = pw.Rating().R()
	white.Deviation = pw.Rating().Rd()
	white.Volatility = pw.Rating().Sigma()
	black.Rating = pb.Rating().R()
	black.Deviation = pb.Rating().Rd()
	black.Volatility = pb.Rating().Sigma()
	tally(&white, sw)
	tally(&black, 1-sw)
	return white, black
}

func matchResult(result core.Result) glicko.MatchResult {
	switch result {
	case core.WhiteWins:
		return glicko.MATCH_RESULT_WIN
	case core.BlackWins:
		return glicko.MATCH_RESULT_LOSS
	default:
		return glicko.MATCH_RESULT_DRAW
	}
}
