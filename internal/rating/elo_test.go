package rating

import (
	"testing"

	"clubledger/internal/core"
)

func TestEloWinLoss(t *testing.T) {
	elo := NewElo(1500)
	white := elo.Initial()
	black := elo.Initial()

	w, b := elo.Apply(core.WhiteWins, white, black)
	if w.Rating <= 1500 {
		t.Errorf("winner should gain: got %.0f", w.Rating)
	}
	if b.Rating >= 1500 {
		t.Errorf("loser should lose: got %.0f", b.Rating)
	}
	if w.NumGames != 1 || w.Won != 1 || b.NumGames != 1 || b.Lost != 1 {
		t.Errorf("counters wrong: white=%+v black=%+v", w, b)
	}

	w, b = elo.Apply(core.BlackWins, white, black)
	if w.Rating >= 1500 || b.Rating <= 1500 {
		t.Errorf("black win should move ratings the other way: %.0f, %.0f", w.Rating, b.Rating)
	}
}

func TestEloDrawAtEqualRating(t *testing.T) {
	elo := NewElo(1500)
	w, b := elo.Apply(core.Draw, elo.Initial(), elo.Initial())
	if w.Rating != 1500 || b.Rating != 1500 {
		t.Errorf("equal players drawing should not move: %.0f, %.0f", w.Rating, b.Rating)
	}
	if w.Drawn != 1 || b.Drawn != 1 {
		t.Errorf("draw counters wrong: white=%+v black=%+v", w, b)
	}
}

func TestEloWeakerPlayerDrawsWithStronger(t *testing.T) {
	elo := NewElo(1500)
	weaker := core.Rating{Rating: 1200, NumGames: 50}
	stronger := core.Rating{Rating: 1800, NumGames: 50}
	w, b := elo.Apply(core.Draw, weaker, stronger)
	if w.Rating <= 1200 {
		t.Errorf("weaker player should gain on draw: got %.0f", w.Rating)
	}
	if b.Rating >= 1800 {
		t.Errorf("stronger player should lose on draw: got %.0f", b.Rating)
	}
}

func TestEloKFactorSchedule(t *testing.T) {
	cases := []struct {
		r    core.Rating
		want int
	}{
		{core.Rating{Rating: 1500, NumGames: 0}, kProvisional},
		{core.Rating{Rating: 1500, NumGames: 29}, kProvisional},
		{core.Rating{Rating: 1500, NumGames: 30}, kEstablished},
		{core.Rating{Rating: 2400, NumGames: 100}, kMaster},
		{core.Rating{Rating: 2399, NumGames: 100}, kEstablished},
	}
	for _, c := range cases {
		if got := kFactor(c.r); got != c.want {
			t.Errorf("kFactor(%+v) = %d, want %d", c.r, got, c.want)
		}
	}
}

func TestEloDeterministic(t *testing.T) {
	// Replaying the same inputs must give identical outputs.
	elo := NewElo(1500)
	white := core.Rating{Rating: 1654, NumGames: 41, Won: 20, Drawn: 11, Lost: 10}
	black := core.Rating{Rating: 1503, NumGames: 12, Won: 5, Drawn: 2, Lost: 5}
	w1, b1 := elo.Apply(core.WhiteWins, white, black)
	w2, b2 := elo.Apply(core.WhiteWins, white, black)
	if !w1.Equal(w2) || !b1.Equal(b2) {
		t.Error("formula is not deterministic")
	}
}

func TestNewFunction(t *testing.T) {
	for _, name := range []string{"elo", "", "glicko2"} {
		if _, err := New(name, 1500); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
	if _, err := New("dwz", 1500); err == nil {
		t.Error("unknown formula should fail")
	}
}

func TestGlicko2Apply(t *testing.T) {
	g := NewGlicko2()
	white := g.Initial()
	black := g.Initial()
	w, b := g.Apply(core.WhiteWins, white, black)
	if w.Rating <= white.Rating {
		t.Errorf("winner should gain: got %.1f", w.Rating)
	}
	if b.Rating >= black.Rating {
		t.Errorf("loser should lose: got %.1f", b.Rating)
	}
	if w.Deviation >= white.Deviation || b.Deviation >= black.Deviation {
		t.Error("deviation should shrink after a game")
	}
	if w.NumGames != 1 || b.NumGames != 1 {
		t.Errorf("counters wrong: white=%+v black=%+v", w, b)
	}
}
