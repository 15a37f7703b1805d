package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"clubledger/internal/core"
)

// Shard keys are YYYY-MM-DD, which sort lexicographically in
// chronological order.
var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ListShards returns a time control's shard keys present on disk,
// sorted chronologically.
func (s *Store) ListShards(timeControlID string) ([]string, error) {
	dir := filepath.Join(s.root, gamesDir, timeControlID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list shards in %s: %v", core.ErrIO, dir, err)
	}
	var keys []string
	for _, e := range entries {
		if !e.IsDir() && dateKeyPattern.MatchString(e.Name()) {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ReadShard loads one day's games. The file holds a JSON array already
// sorted by timestamp; the store does not re-sort on read.
func (s *Store) ReadShard(timeControlID, dateKey string) ([]core.Game, error) {
	path := s.shardPath(timeControlID, dateKey)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read shard %s: %v", core.ErrIO, path, err)
	}
	var games []core.Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("%w: corrupt shard %s: %v", core.ErrIO, path, err)
	}
	return games, nil
}

// WriteShard overwrites one day's games wholesale. The time control's
// directory must already exist; a missing directory is a storage
// failure, not a cue to create it.
func (s *Store) WriteShard(timeControlID, dateKey string, games []core.Game) error {
	dir := filepath.Join(s.root, gamesDir, timeControlID)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: shard directory %s: %v", core.ErrIO, dir, err)
	}
	data, err := json.MarshalIndent(games, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to encode shard %s/%s: %w", timeControlID, dateKey, err)
	}
	path := s.shardPath(timeControlID, dateKey)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write shard %s: %v", core.ErrIO, path, err)
	}
	return nil
}

// DeleteShard removes an emptied shard file.
func (s *Store) DeleteShard(timeControlID, dateKey string) error {
	path := s.shardPath(timeControlID, dateKey)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: failed to delete shard %s: %v", core.ErrIO, path, err)
	}
	return nil
}

// LocateShard binary-searches sorted shard keys for dateKey, returning
// the index where it is or would be inserted, and whether it exists.
func LocateShard(keys []string, dateKey string) (int, bool) {
	i := sort.SearchStrings(keys, dateKey)
	return i, i < len(keys) && keys[i] == dateKey
}

// LocateWhen binary-searches a shard's games for a timestamp, returning
// the insertion index and whether a game with exactly that timestamp
// exists. An existing timestamp is a fatal duplicate for the caller.
func LocateWhen(games []core.Game, when core.When) (int, bool) {
	i := sort.Search(len(games), func(i int) bool {
		return !games[i].When.Before(when)
	})
	return i, i < len(games) && games[i].When == when
}
