// Package graph maintains one time control's opponent graph: for every
// ordered pair of players, how many of their games ended in each
// outcome. Two mirrored directed views are kept in lockstep, one from
// the White seat and one from the Black seat, so either perspective
// reads in O(1).
package graph

import (
	"errors"
	"fmt"
	"sort"

	"clubledger/internal/core"

	"github.com/dominikbraun/graph"
)

// EdgeMetadata aggregates the outcomes of all games behind one directed
// edge, from the edge source's perspective.
type EdgeMetadata struct {
	Won   int `json:"num_games_won"`
	Drawn int `json:"num_games_drawn"`
	Lost  int `json:"num_games_lost"`
}

// Zero reports whether the edge no longer covers any game. A zero edge
// and an absent edge are equivalent for reads.
func (m EdgeMetadata) Zero() bool {
	return m.Won == 0 && m.Drawn == 0 && m.Lost == 0
}

func (m EdgeMetadata) mirror() EdgeMetadata {
	return EdgeMetadata{Won: m.Lost, Drawn: m.Drawn, Lost: m.Won}
}

// EdgeRecord is one persisted neighbor entry.
type EdgeRecord struct {
	Neighbor string       `json:"neighbor"`
	Metadata EdgeMetadata `json:"metadata"`
}

// Graph is the mirrored opponent graph for one time control. Edge
// metadata is stored by pointer so both views mutate in place.
type Graph struct {
	asWhite graph.Graph[string, string]
	asBlack graph.Graph[string, string]
}

// New creates an empty opponent graph.
func New() *Graph {
	return &Graph{
		asWhite: graph.New(graph.StringHash, graph.Directed()),
		asBlack: graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddGame merges one game's outcome into the (white -> black) edge and
// its mirror.
func (g *Graph) AddGame(white, black string, result core.Result) error {
	wm, err := g.edge(g.asWhite, white, black)
	if err != nil {
		return err
	}
	bm, err := g.edge(g.asBlack, black, white)
	if err != nil {
		return err
	}
	apply(wm, bm, result, 1)
	return nil
}

// RemoveGame subtracts one game's outcome from both views. Counts may
// reach zero; the edge entry stays.
func (g *Graph) RemoveGame(white, black string, result core.Result) error {
	wm, bm, err := g.existingPair(white, black)
	if err != nil {
		return err
	}
	apply(wm, bm, result, -1)
	return nil
}

// ChangeGameResult moves one game between outcome counters on an
// existing edge. A missing edge means the graph disagrees with the
// ledger, which is fatal.
func (g *Graph) ChangeGameResult(white, black string, oldResult, newResult core.Result) error {
	wm, bm, err := g.existingPair(white, black)
	if err != nil {
		return err
	}
	apply(wm, bm, oldResult, -1)
	apply(wm, bm, newResult, 1)
	return nil
}

// Edge returns the as-White metadata for (white -> black). Absent edges
// read as zero.
func (g *Graph) Edge(white, black string) EdgeMetadata {
	e, err := g.asWhite.Edge(white, black)
	if err != nil {
		return EdgeMetadata{}
	}
	return *e.Properties.Data.(*EdgeMetadata)
}

// OpponentsAsWhite lists the players username has faced from the White
// seat, sorted by opponent name for deterministic output.
func (g *Graph) OpponentsAsWhite(username string) ([]EdgeRecord, error) {
	return neighbors(g.asWhite, username)
}

// OpponentsAsBlack lists the players username has faced from the Black
// seat.
func (g *Graph) OpponentsAsBlack(username string) ([]EdgeRecord, error) {
	return neighbors(g.asBlack, username)
}

// edge returns the metadata pointer for (from -> to), creating
// vertices and the edge as needed.
func (g *Graph) edge(view graph.Graph[string, string], from, to string) (*EdgeMetadata, error) {
	for _, v := range []string{from, to} {
		if err := view.AddVertex(v); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add player %s to opponent graph: %w", v, err)
		}
	}
	e, err := view.Edge(from, to)
	if err == nil {
		return e.Properties.Data.(*EdgeMetadata), nil
	}
	if !errors.Is(err, graph.ErrEdgeNotFound) {
		return nil, fmt.Errorf("failed to read opponent edge %s->%s: %w", from, to, err)
	}
	m := &EdgeMetadata{}
	if err := view.AddEdge(from, to, graph.EdgeData(m)); err != nil {
		return nil, fmt.Errorf("failed to add opponent edge %s->%s: %w", from, to, err)
	}
	return m, nil
}

// existingPair returns both views' metadata for an edge that must
// already exist.
func (g *Graph) existingPair(white, black string) (*EdgeMetadata, *EdgeMetadata, error) {
	we, err := g.asWhite.Edge(white, black)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: no opponent edge %s->%s", core.ErrInconsistent, white, black)
	}
	be, err := g.asBlack.Edge(black, white)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing mirror edge %s->%s", core.ErrInconsistent, black, white)
	}
	return we.Properties.Data.(*EdgeMetadata), be.Properties.Data.(*EdgeMetadata), nil
}

// apply shifts the counters for result by delta on an as-White edge and
// its as-Black mirror.
func apply(wm, bm *EdgeMetadata, result core.Result, delta int) {
	switch result {
	case core.WhiteWins:
		wm.Won += delta
		bm.Lost += delta
	case core.BlackWins:
		wm.Lost += delta
		bm.Won += delta
	default:
		wm.Drawn += delta
		bm.Drawn += delta
	}
}

func neighbors(view graph.Graph[string, string], username string) ([]EdgeRecord, error) {
	adjacency, err := view.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read opponent graph: %w", err)
	}
	edges, ok := adjacency[username]
	if !ok {
		return nil, nil
	}
	records := make([]EdgeRecord, 0, len(edges))
	for neighbor, e := range edges {
		records = append(records, EdgeRecord{
			Neighbor: neighbor,
			Metadata: *e.Properties.Data.(*EdgeMetadata),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Neighbor < records[j].Neighbor
	})
	return records, nil
}
