package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clubledger/internal/core"
)

// Each player's file holds only their as-White neighbor list; a full
// reload re-derives the as-Black view from everyone else's files.

// Load rebuilds a time control's opponent graph from its per-player
// files. A missing directory yields an empty graph.
func Load(dir string) (*Graph, error) {
	g := New()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("%w: failed to list graph files in %s: %v", core.ErrIO, dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		username := entry.Name()
		path := filepath.Join(dir, username)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read graph file %s: %v", core.ErrIO, path, err)
		}
		var records []EdgeRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: corrupt graph file %s: %v", core.ErrIO, path, err)
		}
		for _, record := range records {
			if err := g.load(username, record.Neighbor, record.Metadata); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// SavePlayer writes one player's as-White neighbor list.
func (g *Graph) SavePlayer(dir, username string) error {
	records, err := g.OpponentsAsWhite(username)
	if err != nil {
		return err
	}
	if records == nil {
		records = []EdgeRecord{}
	}
	data, err := json.MarshalIndent(records, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to encode graph file for %s: %w", username, err)
	}
	path := filepath.Join(dir, username)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write graph file %s: %v", core.ErrIO, path, err)
	}
	return nil
}

// load installs a persisted as-White edge and its mirror.
func (g *Graph) load(white, black string, m EdgeMetadata) error {
	wm, err := g.edge(g.asWhite, white, black)
	if err != nil {
		return err
	}
	bm, err := g.edge(g.asBlack, black, white)
	if err != nil {
		return err
	}
	*wm = m
	*bm = m.mirror()
	return nil
}
