package service

import (
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"clubledger/internal/core"
)

// gameEntry describes a game without the fields the engine assigns.
type gameEntry struct {
	white, black string
	result       core.Result
	when         string
}

// gameState is a game's observable outcome minus the insertion-order
// dependent ID.
type gameState struct {
	white, black             string
	result                   core.Result
	whiteRating, blackRating core.Rating
}

func insertAll(t *testing.T, svc *Service, entries []gameEntry, order []int) {
	t.Helper()
	for _, i := range order {
		entry := entries[i]
		addGame(t, svc, entry.white, entry.black, entry.result, entry.when)
	}
}

// observedState collects every stored game keyed by timestamp, with
// IDs stripped, plus each player's live ratings.
func observedState(t *testing.T, svc *Service) (map[core.When]gameState, map[string]core.Rating) {
	t.Helper()
	games := make(map[core.When]gameState)
	keys, err := svc.store.ListShards(testTC)
	if err != nil {
		t.Fatalf("ListShards failed: %v", err)
	}
	for _, dateKey := range keys {
		shard, err := svc.store.ReadShard(testTC, dateKey)
		if err != nil {
			t.Fatalf("ReadShard failed: %v", err)
		}
		for _, g := range shard {
			games[g.When] = gameState{
				white:       g.White,
				black:       g.Black,
				result:      g.Result,
				whiteRating: g.WhiteRating,
				blackRating: g.BlackRating,
			}
		}
	}
	live := make(map[string]core.Rating)
	for _, username := range svc.Players() {
		p, err := svc.Player(username)
		if err != nil {
			t.Fatalf("Player failed: %v", err)
		}
		if r, ok := p.Ratings[testTC]; ok {
			live[username] = r
		}
	}
	return games, live
}

// snapshotTree reads every file under the given subdirectories of root
// into a path-to-content map. The bolt index stays out of it; its bytes
// shift with page churn even when the logical content does not.
func snapshotTree(t *testing.T, root string, subdirs ...string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	for _, sub := range subdirs {
		base := filepath.Join(root, sub)
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			tree[rel] = string(data)
			return nil
		})
		if err != nil {
			t.Fatalf("failed to walk %s: %v", base, err)
		}
	}
	return tree
}

func assertTreesEqual(t *testing.T, want, got map[string]string) {
	t.Helper()
	for path, content := range want {
		other, ok := got[path]
		if !ok {
			t.Errorf("file %s disappeared", path)
			continue
		}
		if other != content {
			t.Errorf("file %s changed:\nbefore:\n%s\nafter:\n%s", path, content, other)
		}
	}
	for path := range got {
		if _, ok := want[path]; !ok {
			t.Errorf("unexpected file %s", path)
		}
	}
}

// The transitive case matters here: bob links the first two games and
// carol links the last two, so a backfilled first game must ripple
// through players it does not mention.
var chainGames = []gameEntry{
	{"alice", "bob", core.WhiteWins, "2024-03-01..18:00:00:000"},
	{"bob", "carol", core.WhiteWins, "2024-03-02..18:00:00:000"},
	{"alice", "carol", core.BlackWins, "2024-03-03..18:00:00:000"},
}

func TestInsertOrderIndependence(t *testing.T) {
	baseline, baseDir := newTestService(t)
	insertAll(t, baseline, chainGames, []int{0, 1, 2})
	wantGames, wantLive := observedState(t, baseline)
	wantTree := snapshotTree(t, baseDir, "users", "graphs")

	orders := [][]int{
		{0, 2, 1},
		{1, 0, 2},
		{1, 2, 0},
		{2, 0, 1},
		{2, 1, 0},
	}
	for _, order := range orders {
		svc, dir := newTestService(t)
		insertAll(t, svc, chainGames, order)
		games, live := observedState(t, svc)
		if !reflect.DeepEqual(games, wantGames) {
			t.Errorf("order %v: snapshots diverge:\nwant %+v\ngot  %+v", order, wantGames, games)
		}
		if !reflect.DeepEqual(live, wantLive) {
			t.Errorf("order %v: live ratings diverge:\nwant %+v\ngot  %+v", order, wantLive, live)
		}
		assertTreesEqual(t, wantTree, snapshotTree(t, dir, "users", "graphs"))
	}
}

func TestEditThenRevertRestoresEverything(t *testing.T) {
	svc, dir := newTestService(t)
	insertAll(t, svc, chainGames, []int{0, 1, 2})
	addGame(t, svc, "bob", "dave", core.Draw, "2024-03-02..20:00:00:000")

	before := snapshotTree(t, dir, "games", "users", "graphs")

	target := "0000000002"
	if _, err := svc.EditResult(target, core.Draw); err != nil {
		t.Fatalf("EditResult failed: %v", err)
	}
	after := snapshotTree(t, dir, "games", "users", "graphs")
	changed := false
	for path, content := range before {
		if after[path] != content {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatal("the edit should have changed downstream files")
	}

	if _, err := svc.EditResult(target, core.WhiteWins); err != nil {
		t.Fatalf("EditResult failed: %v", err)
	}
	assertTreesEqual(t, before, snapshotTree(t, dir, "games", "users", "graphs"))
}

func TestDeleteEqualsNeverPlayed(t *testing.T) {
	withDelete, _ := newTestService(t)
	insertAll(t, withDelete, chainGames, []int{0, 1, 2})
	if err := withDelete.DeleteGame("0000000002"); err != nil {
		t.Fatalf("DeleteGame failed: %v", err)
	}

	without, _ := newTestService(t)
	insertAll(t, without, chainGames, []int{0, 2})

	wantGames, wantLive := observedState(t, without)
	games, live := observedState(t, withDelete)
	if !reflect.DeepEqual(games, wantGames) {
		t.Errorf("snapshots diverge after delete:\nwant %+v\ngot  %+v", wantGames, games)
	}
	if !reflect.DeepEqual(live, wantLive) {
		t.Errorf("live ratings diverge after delete:\nwant %+v\ngot  %+v", wantLive, live)
	}

	for _, svc := range []*Service{withDelete, without} {
		p, err := svc.Player("bob")
		if err != nil {
			t.Fatalf("Player failed: %v", err)
		}
		if p.HasDate(testTC, "2024-03-02") {
			t.Error("bob should have no games left on 2024-03-02")
		}
	}
}

func TestRecomputeAllMatchesIncrementalState(t *testing.T) {
	svc, dir := newTestService(t)
	insertAll(t, svc, chainGames, []int{1, 2, 0})
	addGame(t, svc, "carol", "dave", core.Draw, "2024-03-04..18:00:00:000")
	if _, err := svc.EditResult("0000000001", core.Draw); err != nil {
		t.Fatalf("EditResult failed: %v", err)
	}
	if err := svc.DeleteGame("0000000004"); err != nil {
		t.Fatalf("DeleteGame failed: %v", err)
	}

	incremental := snapshotTree(t, dir, "games", "users")
	if err := svc.RecomputeAll(); err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}
	assertTreesEqual(t, incremental, snapshotTree(t, dir, "games", "users"))

	if err := svc.RecomputeAll(); err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}
	assertTreesEqual(t, incremental, snapshotTree(t, dir, "games", "users"))
}
