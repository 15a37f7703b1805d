package service

import (
	"fmt"
	"sort"

	"clubledger/internal/core"
	"clubledger/internal/storage"
)

// This file holds the cascading recompute: after a game is inserted,
// edited, or deleted, every later game whose participants' ratings
// shifted must have its recorded pre-game snapshots rewritten, and the
// final ratings become the players' live ratings. The walk is exactly
// equivalent to replaying the whole time control from scratch, but only
// touches the affected suffix of the history.

// gameRef points at one game inside a shard.
type gameRef struct {
	dateKey string
	index   int
	game    core.Game
}

// findNextGame returns the first game strictly after `after` involving
// the player, or nil when the player's live rating is already the
// frontier. The player's shard-date membership list prunes the scan.
func (s *Service) findNextGame(timeControlID, username string, after core.When) (*gameRef, error) {
	p, ok := s.players[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown player %s", core.ErrInconsistent, username)
	}
	dates := p.Dates[timeControlID]
	afterKey := after.DateKey()
	for i := sort.SearchStrings(dates, afterKey); i < len(dates); i++ {
		dateKey := dates[i]
		games, err := s.store.ReadShard(timeControlID, dateKey)
		if err != nil {
			return nil, err
		}
		from := 0
		if dateKey == afterKey {
			var exists bool
			if from, exists = storage.LocateWhen(games, after); exists {
				from++
			}
		}
		for j := from; j < len(games); j++ {
			if games[j].Involves(username) {
				return &gameRef{dateKey: dateKey, index: j, game: games[j]}, nil
			}
		}
	}
	return nil, nil
}

// seedRating returns the rating a player held at the given instant: the
// snapshot of their next game if one exists, otherwise their live
// rating, defaulting to the formula's initial value.
func (s *Service) seedRating(timeControlID, username string, when core.When) (core.Rating, error) {
	next, err := s.findNextGame(timeControlID, username, when)
	if err != nil {
		return core.Rating{}, err
	}
	if next != nil {
		if next.game.White == username {
			return next.game.WhiteRating, nil
		}
		return next.game.BlackRating, nil
	}
	if r, ok := s.players[username].Ratings[timeControlID]; ok {
		return r, nil
	}
	return s.formula.Initial(), nil
}

// propagate walks the history forward from (startKey, startIdx).
// updated maps each affected player to their most recently computed
// post-game rating; any walked game involving an affected player first
// has its snapshots overwritten from the map, then is re-applied
// through the formula, folding both of its participants into the map.
// When the walk exhausts all shards the map holds the new live ratings,
// which are written to each player's record.
func (s *Service) propagate(timeControlID, startKey string, startIdx int, updated map[string]core.Rating) error {
	keys, err := s.store.ListShards(timeControlID)
	if err != nil {
		return err
	}
	for k := sort.SearchStrings(keys, startKey); k < len(keys); k++ {
		dateKey := keys[k]
		games, err := s.store.ReadShard(timeControlID, dateKey)
		if err != nil {
			return err
		}
		begin := 0
		if dateKey == startKey {
			begin = startIdx
		}
		dirty := false
		for i := begin; i < len(games); i++ {
			game := &games[i]
			touched := false
			if r, ok := updated[game.White]; ok {
				game.WhiteRating = r
				touched = true
			}
			if r, ok := updated[game.Black]; ok {
				game.BlackRating = r
				touched = true
			}
			if !touched {
				continue
			}
			white, black := s.formula.Apply(game.Result, game.WhiteRating, game.BlackRating)
			updated[game.White] = white
			updated[game.Black] = black
			dirty = true
		}
		if dirty {
			if err := s.store.WriteShard(timeControlID, dateKey, games); err != nil {
				return err
			}
		}
	}

	usernames := make([]string, 0, len(updated))
	for username := range updated {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	for _, username := range usernames {
		p, ok := s.players[username]
		if !ok {
			return fmt.Errorf("%w: recompute reached unknown player %s", core.ErrInconsistent, username)
		}
		if p.Ratings == nil {
			p.Ratings = make(map[string]core.Rating)
		}
		p.Ratings[timeControlID] = updated[username]
		if err := s.store.WritePlayer(p); err != nil {
			return err
		}
	}
	return nil
}
