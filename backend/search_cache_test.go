package main

import (
	"reflect"
	"testing"
)

func TestStoreTTKeepsDeeperEntry(t *testing.T) {
	cache := NewSearchCache()
	key := TTKey{State: StateKey{Hash: 42, BoardSize: 9, Player: PlayerBlack}, Depth: 3}

	cache.StoreTT(key, TTEntry{Value: 1, DepthLeft: 2}, 0)
	cache.StoreTT(key, TTEntry{Value: 5, DepthLeft: 4}, 0)
	if entry, ok := cache.LookupTT(key); !ok || entry.Value != 5 || entry.DepthLeft != 4 {
		t.Fatalf("deeper entry must replace shallower, got %+v ok=%v", entry, ok)
	}

	// Ties and shallower stores keep the existing entry and its hits.
	cache.StoreTT(key, TTEntry{Value: 9, DepthLeft: 4}, 0)
	cache.StoreTT(key, TTEntry{Value: 9, DepthLeft: 1}, 0)
	entry, ok := cache.LookupTT(key)
	if !ok || entry.Value != 5 {
		t.Fatalf("equal or shallower store must not replace, got %+v", entry)
	}
	if entry.Hits != 2 {
		t.Fatalf("expected 2 recorded hits, got %d", entry.Hits)
	}
}

func TestStoreTTClearsWholesaleAtCapacity(t *testing.T) {
	cache := NewSearchCache()
	for i := 0; i < 5; i++ {
		key := TTKey{State: StateKey{Hash: uint64(i), BoardSize: 9}, Depth: 1}
		cache.StoreTT(key, TTEntry{Value: float64(i)}, 5)
	}
	if cache.TTSize() != 5 {
		t.Fatalf("expected table at capacity, got %d", cache.TTSize())
	}
	cache.StoreTT(TTKey{State: StateKey{Hash: 99, BoardSize: 9}, Depth: 1}, TTEntry{Value: 99}, 5)
	if cache.TTSize() != 0 {
		t.Fatalf("expected wholesale clear past capacity, got %d entries", cache.TTSize())
	}
}

func TestRerootPrunesUnreachableEntries(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	state := DefaultGameState(settings)
	state.Status = StatusRunning
	state.Hash = ComputeHash(state)
	root := stateKeyOf(state)

	child := root
	child.Hash ^= 0xbeef
	orphan := root
	orphan.Hash ^= 0xdead

	cache := NewSearchCache()
	cache.AddEdge(root, child)
	cache.StoreTT(TTKey{State: root, Depth: 2}, TTEntry{Value: 1, DepthLeft: 2}, 0)
	cache.StoreTT(TTKey{State: child, Depth: 1}, TTEntry{Value: 2, DepthLeft: 1}, 0)
	cache.StoreTT(TTKey{State: orphan, Depth: 1}, TTEntry{Value: 3, DepthLeft: 1}, 0)
	cache.StoreMoveScore(MoveCacheKey{State: orphan, Depth: 1, X: 1, Y: 1}, 7)
	cache.StoreMoveScore(MoveCacheKey{State: child, Depth: 1, X: 1, Y: 1}, 8)
	cache.StoreWinByMove(ImmediateWinKey{State: orphan, X: 2, Y: 2}, true)
	cache.StoreWinByState(root, winMemo{Has: false})
	cache.StoreWinByState(orphan, winMemo{Has: true, Move: Move{X: 2, Y: 2}})
	cache.StoreDepthGrid(DepthGridKey{Hash: root.Hash, Depth: 1, BoardSize: 9, Player: PlayerBlack}, newScoreGrid(9))

	cache.Reroot(state)

	if _, ok := cache.LookupTT(TTKey{State: root, Depth: 2}); !ok {
		t.Fatalf("root entry must survive rerooting")
	}
	if _, ok := cache.LookupTT(TTKey{State: child, Depth: 1}); !ok {
		t.Fatalf("reachable child entry must survive rerooting")
	}
	if _, ok := cache.LookupTT(TTKey{State: orphan, Depth: 1}); ok {
		t.Fatalf("unreachable entry must be pruned")
	}
	if _, ok := cache.LookupMoveScore(MoveCacheKey{State: orphan, Depth: 1, X: 1, Y: 1}); ok {
		t.Fatalf("unreachable move score must be pruned")
	}
	if _, ok := cache.LookupMoveScore(MoveCacheKey{State: child, Depth: 1, X: 1, Y: 1}); !ok {
		t.Fatalf("reachable move score must survive")
	}
	if _, ok := cache.LookupWinByMove(ImmediateWinKey{State: orphan, X: 2, Y: 2}); ok {
		t.Fatalf("unreachable win memo must be pruned")
	}
	if _, ok := cache.LookupWinByState(orphan); ok {
		t.Fatalf("unreachable state memo must be pruned")
	}
	if snapshot := cache.Snapshot(); snapshot.DepthGrids != 0 {
		t.Fatalf("depth grids are per root and must be dropped, got %d", snapshot.DepthGrids)
	}

	// Rerooting the same position again changes nothing further.
	before := cache.Snapshot()
	cache.Reroot(state)
	if after := cache.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("second reroot must be a no-op: %+v vs %+v", before, after)
	}
}

func TestLookupDepthGridReturnsCopy(t *testing.T) {
	cache := NewSearchCache()
	key := DepthGridKey{Hash: 7, Depth: 1, BoardSize: 3, Player: PlayerBlack}
	cache.StoreDepthGrid(key, []float64{1, 2, 3})

	grid, ok := cache.LookupDepthGrid(key)
	if !ok {
		t.Fatalf("expected a stored grid")
	}
	grid[0] = 99
	fresh, _ := cache.LookupDepthGrid(key)
	if fresh[0] != 1 {
		t.Fatalf("mutating a looked-up grid must not touch the cache")
	}
}

func TestTopTTEntriesOrdering(t *testing.T) {
	cache := NewSearchCache()
	hot := TTKey{State: StateKey{Hash: 1, BoardSize: 9}, Depth: 1}
	deep := TTKey{State: StateKey{Hash: 2, BoardSize: 9}, Depth: 2}
	cold := TTKey{State: StateKey{Hash: 3, BoardSize: 9}, Depth: 1}
	cache.StoreTT(hot, TTEntry{Value: 1, DepthLeft: 1}, 0)
	cache.StoreTT(deep, TTEntry{Value: 2, DepthLeft: 5}, 0)
	cache.StoreTT(cold, TTEntry{Value: 3, DepthLeft: 1}, 0)
	cache.LookupTT(hot)
	cache.LookupTT(hot)

	views := cache.TopTTEntries(2)
	if len(views) != 2 {
		t.Fatalf("expected the limit to cap the list, got %d", len(views))
	}
	if views[0].Key != hot {
		t.Fatalf("most-hit entry must come first, got %+v", views[0].Key)
	}
	if views[1].Key != deep {
		t.Fatalf("deepest entry breaks the hit tie, got %+v", views[1].Key)
	}
}
