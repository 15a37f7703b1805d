// Package storage persists the game ledger: one JSON file per calendar
// day and time control under games/, one JSON file per player under
// users/, one outgoing-edge file per player under graphs/, and a bbolt
// index mapping game IDs to their shard.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"clubledger/internal/core"

	"go.etcd.io/bbolt"
)

const (
	gamesDir  = "games"
	graphsDir = "graphs"
	usersDir  = "users"
)

// Store handles all file and index operations for one deployment root.
type Store struct {
	root string
	db   *bbolt.DB
}

// Open opens the store rooted at root with its game index at indexPath.
// The root directory must exist; the index file is created on demand.
func Open(root, indexPath string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: data root %s: %v", core.ErrIO, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: data root %s is not a directory", core.ErrIO, root)
	}

	db, err := bbolt.Open(indexPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open index %s: %v", core.ErrIO, indexPath, err)
	}

	s := &Store{root: root, db: db}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitLayout creates the directory skeleton for the given time controls.
// Existing directories are left alone.
func (s *Store) InitLayout(timeControls []core.TimeControl) error {
	dirs := []string{filepath.Join(s.root, usersDir)}
	for _, tc := range timeControls {
		dirs = append(dirs,
			filepath.Join(s.root, gamesDir, tc.ID),
			filepath.Join(s.root, graphsDir, tc.ID),
		)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: failed to create %s: %v", core.ErrIO, dir, err)
		}
	}
	return nil
}

// TimeControls lists the time-control IDs present under games/.
func (s *Store) TimeControls() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, gamesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to list time controls: %v", core.ErrIO, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// GraphDir returns the directory holding a time control's per-player
// opponent-graph files.
func (s *Store) GraphDir(timeControlID string) string {
	return filepath.Join(s.root, graphsDir, timeControlID)
}

func (s *Store) shardPath(timeControlID, dateKey string) string {
	return filepath.Join(s.root, gamesDir, timeControlID, dateKey)
}

func (s *Store) playerPath(username string) string {
	return filepath.Join(s.root, usersDir, username)
}
