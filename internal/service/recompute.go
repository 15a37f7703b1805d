package service

import (
	"fmt"
	"sort"

	"clubledger/internal/core"
)

// RecomputeAll rebuilds every rating from scratch: all players reset to
// the formula's initial value, then every time control's history is
// replayed chronologically, rewriting each game's pre-game snapshots on
// the way. Running it twice in a row produces identical files.
func (s *Service) RecomputeAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		for timeControlID := range p.Ratings {
			p.Ratings[timeControlID] = s.formula.Initial()
		}
	}

	timeControls, err := s.store.TimeControls()
	if err != nil {
		return err
	}
	for _, timeControlID := range timeControls {
		if err := s.replayTimeControl(timeControlID); err != nil {
			return err
		}
	}

	usernames := make([]string, 0, len(s.players))
	for username := range s.players {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	for _, username := range usernames {
		if err := s.store.WritePlayer(s.players[username]); err != nil {
			return err
		}
	}
	return nil
}

// replayTimeControl replays one time control's entire history through
// the formula, updating snapshots in place and leaving the final
// ratings in the in-memory player table.
func (s *Service) replayTimeControl(timeControlID string) error {
	keys, err := s.store.ListShards(timeControlID)
	if err != nil {
		return err
	}
	live := make(map[string]core.Rating)
	for _, dateKey := range keys {
		games, err := s.store.ReadShard(timeControlID, dateKey)
		if err != nil {
			return err
		}
		for i := range games {
			game := &games[i]
			white, ok := live[game.White]
			if !ok {
				white = s.formula.Initial()
			}
			black, ok := live[game.Black]
			if !ok {
				black = s.formula.Initial()
			}
			game.WhiteRating = white
			game.BlackRating = black
			live[game.White], live[game.Black] = s.formula.Apply(game.Result, white, black)
		}
		if err := s.store.WriteShard(timeControlID, dateKey, games); err != nil {
			return err
		}
	}
	for username, r := range live {
		p, ok := s.players[username]
		if !ok {
			return fmt.Errorf("%w: game history references unknown player %s", core.ErrInconsistent, username)
		}
		if p.Ratings == nil {
			p.Ratings = make(map[string]core.Rating)
		}
		p.Ratings[timeControlID] = r
	}
	return nil
}
