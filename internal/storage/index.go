package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"clubledger/internal/core"

	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"
)

var (
	gamesBucket = []byte("games")
	metaBucket  = []byte("meta")
	maxIDKey    = []byte("max_id")
)

// GameLocation names the shard holding a game. IDs alone do not reveal
// which file a record lives in, so lookups go through this index first.
type GameLocation struct {
	TimeControlID string `json:"time_control_id"`
	DateKey       string `json:"date_key"`
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{gamesBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("%w: failed to create index bucket %s: %v", core.ErrIO, name, err)
			}
		}
		return nil
	})
}

// IndexGame records where a game lives.
func (s *Store) IndexGame(id string, loc GameLocation) error {
	value, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to encode index entry for %s: %w", id, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(gamesBucket).Put([]byte(id), value)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to index game %s: %v", core.ErrIO, id, err)
	}
	return nil
}

// UnindexGame drops a deleted game's index entry.
func (s *Store) UnindexGame(id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(gamesBucket).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("%w: failed to unindex game %s: %v", core.ErrIO, id, err)
	}
	return nil
}

// LookupGame resolves a game ID to its shard.
func (s *Store) LookupGame(id string) (GameLocation, error) {
	var loc GameLocation
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(gamesBucket).Get([]byte(id))
		if value == nil {
			return fmt.Errorf("game %s: %w", id, core.ErrNotFound)
		}
		return json.Unmarshal(value, &loc)
	})
	return loc, err
}

// MaxID returns the highest game ID ever issued, or zero for a fresh
// index.
func (s *Store) MaxID() (uint64, error) {
	var max uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(metaBucket).Get(maxIDKey)
		if len(value) == 8 {
			max = binary.BigEndian.Uint64(value)
		}
		return nil
	})
	return max, err
}

// SetMaxID persists the highest issued game ID. It never decreases the
// stored value: issued IDs are permanent even if an insert fails later.
func (s *Store) SetMaxID(max uint64) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(metaBucket)
		if current := bucket.Get(maxIDKey); len(current) == 8 && binary.BigEndian.Uint64(current) >= max {
			return nil
		}
		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, max)
		return bucket.Put(maxIDKey, value)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to persist max game id: %v", core.ErrIO, err)
	}
	return nil
}

// Reindex rebuilds the game index and the max-ID watermark by scanning
// every shard of every time control, reading time controls in parallel.
// It returns the highest ID found.
func (s *Store) Reindex() (uint64, error) {
	timeControls, err := s.TimeControls()
	if err != nil {
		return 0, err
	}

	scanned := make([]map[string]GameLocation, len(timeControls))
	var g errgroup.Group
	for i, tc := range timeControls {
		i, tc := i, tc
		g.Go(func() error {
			entries := make(map[string]GameLocation)
			keys, err := s.ListShards(tc)
			if err != nil {
				return err
			}
			for _, key := range keys {
				games, err := s.ReadShard(tc, key)
				if err != nil {
					return err
				}
				for _, game := range games {
					entries[game.ID] = GameLocation{TimeControlID: tc, DateKey: key}
				}
			}
			scanned[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var max uint64
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(gamesBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(gamesBucket)
		if err != nil {
			return err
		}
		for _, entries := range scanned {
			for id, loc := range entries {
				n, err := core.ParseID(id)
				if err != nil {
					return fmt.Errorf("%w: shard %s/%s holds malformed game id %q", core.ErrInconsistent, loc.TimeControlID, loc.DateKey, id)
				}
				if n > max {
					max = n
				}
				value, err := json.Marshal(loc)
				if err != nil {
					return err
				}
				if err := bucket.Put([]byte(id), value); err != nil {
					return err
				}
			}
		}
		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, max)
		return tx.Bucket(metaBucket).Put(maxIDKey, value)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild game index: %w", err)
	}
	return max, nil
}
