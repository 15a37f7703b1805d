// Package core holds the ledger's domain types: games, results,
// timestamps, ratings, players, and time controls.
package core

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Result is the outcome of a game from White's perspective.
type Result string

const (
	WhiteWins Result = "white_wins"
	Draw      Result = "draw"
	BlackWins Result = "black_wins"
)

// Valid reports whether r is one of the three recognized outcomes.
func (r Result) Valid() bool {
	switch r {
	case WhiteWins, Draw, BlackWins:
		return true
	}
	return false
}

// whenLayout is the wall-clock part of the ledger timestamp format.
// Milliseconds are appended separately because they are colon-delimited.
const whenLayout = "2006-01-02..15:04:05"

// When is a game timestamp in the canonical ledger format
// YYYY-MM-DD..HH:mm:ss:SSS. The format sorts lexicographically in
// chronological order, so When values compare directly as strings.
type When string

// NewWhen renders t as a canonical timestamp with millisecond precision.
func NewWhen(t time.Time) When {
	return When(t.Format(whenLayout) + fmt.Sprintf(":%03d", t.Nanosecond()/int(time.Millisecond)))
}

// ParseWhen validates s against the canonical format.
func ParseWhen(s string) (When, error) {
	if len(s) != len(whenLayout)+4 || s[len(whenLayout)] != ':' {
		return "", fmt.Errorf("invalid timestamp %q: want YYYY-MM-DD..HH:mm:ss:SSS", s)
	}
	if _, err := time.Parse(whenLayout, s[:len(whenLayout)]); err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	for _, c := range s[len(whenLayout)+1:] {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("invalid milliseconds in timestamp %q", s)
		}
	}
	return When(s), nil
}

// Before reports whether w is chronologically earlier than other.
func (w When) Before(other When) bool {
	return w < other
}

// DateKey returns the YYYY-MM-DD shard key derived from the timestamp.
func (w When) DateKey() string {
	if len(w) < 10 {
		return string(w)
	}
	return string(w[:10])
}

// Time parses the timestamp back into a time.Time.
func (w When) Time() (time.Time, error) {
	if _, err := ParseWhen(string(w)); err != nil {
		return time.Time{}, err
	}
	t, _ := time.Parse(whenLayout, string(w[:len(whenLayout)]))
	ms, _ := strconv.Atoi(string(w[len(whenLayout)+1:]))
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}

// Rating is a player's skill value under one time control. The engine
// treats it as opaque beyond copying and comparing; the shape covers
// both Elo (rating plus game counters) and Glicko-2 (deviation and
// volatility) formulas.
type Rating struct {
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation,omitempty"`
	Volatility float64 `json:"volatility,omitempty"`
	NumGames   int     `json:"num_games"`
	Won        int     `json:"won"`
	Drawn      int     `json:"drawn"`
	Lost       int     `json:"lost"`
}

// Equal reports whether two ratings hold identical values.
func (r Rating) Equal(other Rating) bool {
	return r == other
}

// Game is one recorded game. The identity fields are immutable; Result
// changes only through an explicit edit, and the rating snapshots only
// through the cascading recompute. Snapshots hold each player's rating
// immediately *before* the game.
type Game struct {
	ID              string `json:"id"`
	White           string `json:"white"`
	WhiteRating     Rating `json:"white_rating"`
	Black           string `json:"black"`
	BlackRating     Rating `json:"black_rating"`
	Result          Result `json:"result"`
	TimeControlID   string `json:"time_control_id"`
	TimeControlName string `json:"time_control_name"`
	When            When   `json:"when"`
}

// Involves reports whether username played either side of the game.
func (g *Game) Involves(username string) bool {
	return g.White == username || g.Black == username
}

// TimeControl is a named bucket of game time formats under which
// ratings and histories are tracked independently.
type TimeControl struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player is a club member's engine-visible record: one current rating
// per time control plus the list of shard dates in which the player has
// a game, used to prune history searches.
type Player struct {
	Username string              `json:"username"`
	Ratings  map[string]Rating   `json:"ratings"`
	Dates    map[string][]string `json:"dates"`
}

// NewPlayer creates an empty player record.
func NewPlayer(username string) *Player {
	return &Player{
		Username: username,
		Ratings:  make(map[string]Rating),
		Dates:    make(map[string][]string),
	}
}

// Clone returns an independent copy of the player record; mutating the
// copy's maps does not touch the original.
func (p *Player) Clone() *Player {
	copied := Player{
		Username: p.Username,
		Ratings:  make(map[string]Rating, len(p.Ratings)),
		Dates:    make(map[string][]string, len(p.Dates)),
	}
	for timeControlID, r := range p.Ratings {
		copied.Ratings[timeControlID] = r
	}
	for timeControlID, dates := range p.Dates {
		copied.Dates[timeControlID] = append([]string(nil), dates...)
	}
	return &copied
}

// AddDate records that the player has at least one game on the given
// shard date under the time control. The list stays sorted and
// duplicate-free.
func (p *Player) AddDate(timeControlID, dateKey string) {
	if p.Dates == nil {
		p.Dates = make(map[string][]string)
	}
	dates := p.Dates[timeControlID]
	i := sort.SearchStrings(dates, dateKey)
	if i < len(dates) && dates[i] == dateKey {
		return
	}
	dates = append(dates, "")
	copy(dates[i+1:], dates[i:])
	dates[i] = dateKey
	p.Dates[timeControlID] = dates
}

// RemoveDate drops a shard date from the player's membership list.
func (p *Player) RemoveDate(timeControlID, dateKey string) {
	dates := p.Dates[timeControlID]
	i := sort.SearchStrings(dates, dateKey)
	if i >= len(dates) || dates[i] != dateKey {
		return
	}
	p.Dates[timeControlID] = append(dates[:i], dates[i+1:]...)
}

// HasDate reports whether the player has a game on the given shard date.
func (p *Player) HasDate(timeControlID, dateKey string) bool {
	dates := p.Dates[timeControlID]
	i := sort.SearchStrings(dates, dateKey)
	return i < len(dates) && dates[i] == dateKey
}
