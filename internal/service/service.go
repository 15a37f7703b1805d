// Package service implements the game ledger engine: adding, editing,
// and deleting games, the cascading rating recompute that keeps every
// stored snapshot consistent with a chronological replay, and the
// opponent graph bookkeeping.
package service

import (
	"fmt"
	"sort"
	"sync"

	"clubledger/internal/core"
	"clubledger/internal/graph"
	"clubledger/internal/rating"
	"clubledger/internal/storage"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Service coordinates the shard store, the ID allocator, the rating
// propagator, and the opponent graph. Mutating operations run one at a
// time; the engine assumes exclusive ownership of its state for the
// duration of each call.
type Service struct {
	mu           sync.RWMutex
	store        *storage.Store
	formula      rating.Function
	alloc        IDAllocator
	timeControls map[string]core.TimeControl
	players      map[string]*core.Player
	graphs       map[string]*graph.Graph
}

// New loads the engine's working state from the store: the player
// table, each time control's opponent graph, and the ID high-water
// mark. A store whose index has no watermark is scanned once to build
// it.
func New(store *storage.Store, formula rating.Function, timeControls []core.TimeControl) (*Service, error) {
	s := &Service{
		store:        store,
		formula:      formula,
		timeControls: make(map[string]core.TimeControl),
		players:      make(map[string]*core.Player),
		graphs:       make(map[string]*graph.Graph),
	}
	for _, tc := range timeControls {
		s.timeControls[tc.ID] = tc
	}

	usernames, err := store.ListPlayers()
	if err != nil {
		return nil, err
	}
	for _, username := range usernames {
		p, err := store.ReadPlayer(username)
		if err != nil {
			return nil, err
		}
		s.players[username] = p
	}

	onDisk, err := store.TimeControls()
	if err != nil {
		return nil, err
	}
	for _, id := range onDisk {
		if _, ok := s.timeControls[id]; !ok {
			s.timeControls[id] = core.TimeControl{ID: id, Name: id}
		}
		g, err := graph.Load(store.GraphDir(id))
		if err != nil {
			return nil, err
		}
		s.graphs[id] = g
	}

	max, err := store.MaxID()
	if err != nil {
		return nil, err
	}
	if max == 0 {
		if max, err = store.Reindex(); err != nil {
			return nil, err
		}
	}
	s.alloc.Reset(max)
	return s, nil
}

// AddGameRequest carries a new game as entered by a club officer.
type AddGameRequest struct {
	White           string      `validate:"required"`
	Black           string      `validate:"required,nefield=White"`
	Result          core.Result `validate:"required,oneof=white_wins draw black_wins"`
	TimeControlID   string      `validate:"required"`
	TimeControlName string
	When            core.When `validate:"required"`
}

// AddGame records a game, possibly out of chronological order, and
// recomputes every later game's rating snapshots plus both players'
// live ratings.
func (s *Service) AddGame(req AddGameRequest) (*core.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid game: %w", err)
	}
	when, err := core.ParseWhen(string(req.When))
	if err != nil {
		return nil, fmt.Errorf("invalid game: %w", err)
	}

	tc, ok := s.timeControls[req.TimeControlID]
	if !ok {
		return nil, fmt.Errorf("time control %s: %w", req.TimeControlID, core.ErrNotFound)
	}
	name := req.TimeControlName
	if name == "" {
		name = tc.Name
	}
	for _, username := range []string{req.White, req.Black} {
		if _, ok := s.players[username]; !ok {
			return nil, fmt.Errorf("%w: game references unknown player %s", core.ErrInconsistent, username)
		}
	}

	keys, err := s.store.ListShards(tc.ID)
	if err != nil {
		return nil, err
	}
	dateKey := when.DateKey()
	_, shardExists := storage.LocateShard(keys, dateKey)

	var games []core.Game
	insertAt := 0
	if shardExists {
		if games, err = s.store.ReadShard(tc.ID, dateKey); err != nil {
			return nil, err
		}
		var duplicate bool
		if insertAt, duplicate = storage.LocateWhen(games, when); duplicate {
			return nil, fmt.Errorf("%w: duplicate timestamp %s in time control %s", core.ErrInconsistent, when, tc.ID)
		}
	}

	// Seed the snapshots before the new game is visible to the search:
	// the next game each side plays already records their rating as of any
	// earlier instant, and with no next game the live rating applies.
	whiteSeed, err := s.seedRating(tc.ID, req.White, when)
	if err != nil {
		return nil, err
	}
	blackSeed, err := s.seedRating(tc.ID, req.Black, when)
	if err != nil {
		return nil, err
	}

	game := core.Game{
		ID:              s.alloc.Next(),
		White:           req.White,
		WhiteRating:     whiteSeed,
		Black:           req.Black,
		BlackRating:     blackSeed,
		Result:          req.Result,
		TimeControlID:   tc.ID,
		TimeControlName: name,
		When:            when,
	}
	if err := s.store.SetMaxID(s.alloc.max); err != nil {
		return nil, err
	}

	games = append(games, core.Game{})
	copy(games[insertAt+1:], games[insertAt:])
	games[insertAt] = game
	if err := s.store.WriteShard(tc.ID, dateKey, games); err != nil {
		return nil, err
	}
	if err := s.store.IndexGame(game.ID, storage.GameLocation{TimeControlID: tc.ID, DateKey: dateKey}); err != nil {
		return nil, err
	}
	s.players[req.White].AddDate(tc.ID, dateKey)
	s.players[req.Black].AddDate(tc.ID, dateKey)

	whitePost, blackPost := s.formula.Apply(game.Result, game.WhiteRating, game.BlackRating)
	updated := map[string]core.Rating{
		game.White: whitePost,
		game.Black: blackPost,
	}
	if err := s.propagate(tc.ID, dateKey, insertAt+1, updated); err != nil {
		return nil, err
	}
	if err := s.updateGraph(tc.ID, func(g *graph.Graph) error {
		return g.AddGame(game.White, game.Black, game.Result)
	}, game.White, game.Black); err != nil {
		return nil, err
	}
	return &game, nil
}

// EditResult changes a game's result in place and recomputes everything
// downstream of it.
func (s *Service) EditResult(id string, newResult core.Result) (*core.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !newResult.Valid() {
		return nil, fmt.Errorf("invalid result %q", newResult)
	}
	loc, err := s.store.LookupGame(id)
	if err != nil {
		return nil, err
	}
	games, err := s.store.ReadShard(loc.TimeControlID, loc.DateKey)
	if err != nil {
		return nil, err
	}
	idx := findByID(games, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: index names game %s in shard %s/%s but the shard does not hold it", core.ErrInconsistent, id, loc.TimeControlID, loc.DateKey)
	}

	game := &games[idx]
	oldResult := game.Result
	if oldResult == newResult {
		copied := *game
		return &copied, nil
	}
	game.Result = newResult
	if err := s.store.WriteShard(loc.TimeControlID, loc.DateKey, games); err != nil {
		return nil, err
	}

	whitePost, blackPost := s.formula.Apply(newResult, game.WhiteRating, game.BlackRating)
	updated := map[string]core.Rating{
		game.White: whitePost,
		game.Black: blackPost,
	}
	if err := s.propagate(loc.TimeControlID, loc.DateKey, idx+1, updated); err != nil {
		return nil, err
	}
	edited := *game
	if err := s.updateGraph(loc.TimeControlID, func(g *graph.Graph) error {
		return g.ChangeGameResult(edited.White, edited.Black, oldResult, newResult)
	}, edited.White, edited.Black); err != nil {
		return nil, err
	}
	return &edited, nil
}

// DeleteGame removes a game and recomputes the rest of the history as
// if it had never been played. The game's ID is never reissued.
func (s *Service) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := s.store.LookupGame(id)
	if err != nil {
		return err
	}
	games, err := s.store.ReadShard(loc.TimeControlID, loc.DateKey)
	if err != nil {
		return err
	}
	idx := findByID(games, id)
	if idx < 0 {
		return fmt.Errorf("%w: index names game %s in shard %s/%s but the shard does not hold it", core.ErrInconsistent, id, loc.TimeControlID, loc.DateKey)
	}
	game := games[idx]
	games = append(games[:idx], games[idx+1:]...)

	if len(games) == 0 {
		if err := s.store.DeleteShard(loc.TimeControlID, loc.DateKey); err != nil {
			return err
		}
	} else {
		if err := s.store.WriteShard(loc.TimeControlID, loc.DateKey, games); err != nil {
			return err
		}
	}
	if err := s.store.UnindexGame(id); err != nil {
		return err
	}
	for _, username := range []string{game.White, game.Black} {
		if remaining(games, username) == 0 {
			if p, ok := s.players[username]; ok {
				p.RemoveDate(loc.TimeControlID, loc.DateKey)
			}
		}
	}

	// The deleted game's pre-game snapshots are the players' ratings at
	// that point in time once the game is gone.
	updated := map[string]core.Rating{
		game.White: game.WhiteRating,
		game.Black: game.BlackRating,
	}
	if err := s.propagate(loc.TimeControlID, loc.DateKey, idx, updated); err != nil {
		return err
	}
	return s.updateGraph(loc.TimeControlID, func(g *graph.Graph) error {
		return g.RemoveGame(game.White, game.Black, game.Result)
	}, game.White, game.Black)
}

// CreatePlayer registers a club member with the engine. Rating entries
// appear lazily with their first game per time control.
func (s *Service) CreatePlayer(username string) (*core.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	if _, ok := s.players[username]; ok {
		return nil, fmt.Errorf("player %s already exists", username)
	}
	p := core.NewPlayer(username)
	if err := s.store.WritePlayer(p); err != nil {
		return nil, err
	}
	s.players[username] = p
	return p, nil
}

// Player returns a club member's record.
func (s *Service) Player(username string) (*core.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[username]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", username, core.ErrNotFound)
	}
	return p.Clone(), nil
}

// Players lists all registered usernames.
func (s *Service) Players() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.players))
	for username := range s.players {
		names = append(names, username)
	}
	sort.Strings(names)
	return names
}

// TimeControls lists the known time controls.
func (s *Service) TimeControls() []core.TimeControl {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tcs := make([]core.TimeControl, 0, len(s.timeControls))
	for _, tc := range s.timeControls {
		tcs = append(tcs, tc)
	}
	sort.Slice(tcs, func(i, j int) bool { return tcs[i].ID < tcs[j].ID })
	return tcs
}

// GetGame resolves a game by ID.
func (s *Service) GetGame(id string) (*core.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, err := s.store.LookupGame(id)
	if err != nil {
		return nil, err
	}
	games, err := s.store.ReadShard(loc.TimeControlID, loc.DateKey)
	if err != nil {
		return nil, err
	}
	if idx := findByID(games, id); idx >= 0 {
		copied := games[idx]
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: index names game %s in shard %s/%s but the shard does not hold it", core.ErrInconsistent, id, loc.TimeControlID, loc.DateKey)
}

// GamesOn returns one day's games for a time control, oldest first.
func (s *Service) GamesOn(timeControlID, dateKey string) ([]core.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.timeControls[timeControlID]; !ok {
		return nil, fmt.Errorf("time control %s: %w", timeControlID, core.ErrNotFound)
	}
	keys, err := s.store.ListShards(timeControlID)
	if err != nil {
		return nil, err
	}
	if _, ok := storage.LocateShard(keys, dateKey); !ok {
		return nil, nil
	}
	return s.store.ReadShard(timeControlID, dateKey)
}

// PlayerGames returns every game a player has under a time control,
// oldest first.
func (s *Service) PlayerGames(timeControlID, username string) ([]core.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[username]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", username, core.ErrNotFound)
	}
	var out []core.Game
	for _, dateKey := range p.Dates[timeControlID] {
		games, err := s.store.ReadShard(timeControlID, dateKey)
		if err != nil {
			return nil, err
		}
		for _, g := range games {
			if g.Involves(username) {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

// Opponents returns a player's aggregated results against each
// opponent, split by seat.
func (s *Service) Opponents(timeControlID, username string) (asWhite, asBlack []graph.EdgeRecord, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[timeControlID]
	if !ok {
		return nil, nil, nil
	}
	if asWhite, err = g.OpponentsAsWhite(username); err != nil {
		return nil, nil, err
	}
	if asBlack, err = g.OpponentsAsBlack(username); err != nil {
		return nil, nil, err
	}
	return asWhite, asBlack, nil
}

// updateGraph applies one mutation to a time control's opponent graph
// and persists both players' edge files.
func (s *Service) updateGraph(timeControlID string, mutate func(*graph.Graph) error, white, black string) error {
	g, ok := s.graphs[timeControlID]
	if !ok {
		g = graph.New()
		s.graphs[timeControlID] = g
	}
	if err := mutate(g); err != nil {
		return err
	}
	dir := s.store.GraphDir(timeControlID)
	for _, username := range []string{white, black} {
		if err := g.SavePlayer(dir, username); err != nil {
			return err
		}
	}
	return nil
}

// findByID locates a game in a shard; the index narrows the search to
// one file, the scan finds the exact record.
func findByID(games []core.Game, id string) int {
	for i := range games {
		if games[i].ID == id {
			return i
		}
	}
	return -1
}

// remaining counts a player's games left in a shard.
func remaining(games []core.Game, username string) int {
	n := 0
	for i := range games {
		if games[i].Involves(username) {
			n++
		}
	}
	return n
}
