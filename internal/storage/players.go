package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"clubledger/internal/core"
)

// ReadPlayer loads a player's record from users/<username>.
func (s *Store) ReadPlayer(username string) (*core.Player, error) {
	path := s.playerPath(username)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("player %s: %w", username, core.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to read player %s: %v", core.ErrIO, path, err)
	}
	var p core.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: corrupt player file %s: %v", core.ErrIO, path, err)
	}
	if p.Ratings == nil {
		p.Ratings = make(map[string]core.Rating)
	}
	if p.Dates == nil {
		p.Dates = make(map[string][]string)
	}
	return &p, nil
}

// WritePlayer overwrites a player's record.
func (s *Store) WritePlayer(p *core.Player) error {
	data, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", p.Username, err)
	}
	path := s.playerPath(p.Username)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write player %s: %v", core.ErrIO, path, err)
	}
	return nil
}

// ListPlayers returns every username with a record under users/.
func (s *Store) ListPlayers() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, usersDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to list players: %v", core.ErrIO, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
