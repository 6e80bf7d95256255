package main

import "sort"

// StateKey identifies a position for caching. The Zobrist hash already
// mixes in side to move and capture counts, but the remaining fields
// stay in the key so a hash collision cannot alias two positions.
type StateKey struct {
	Hash          uint64
	BoardSize     int
	CapturedBlack int
	CapturedWhite int
	Status        GameStatus
	Player        PlayerColor
}

func stateKeyOf(state GameState) StateKey {
	return StateKey{
		Hash:          state.Hash,
		BoardSize:     state.Board.Size(),
		CapturedBlack: state.CapturedBlack,
		CapturedWhite: state.CapturedWhite,
		Status:        state.Status,
		Player:        state.ToMove,
	}
}

// stateKeyForPlayer keys a position from a chosen player's point of
// view, which may differ from the side to move when probing the
// opponent's threats.
func stateKeyForPlayer(state GameState, player PlayerColor) StateKey {
	key := stateKeyOf(state)
	key.Player = player
	return key
}

// TTKey includes the remaining search depth: the same position probed
// at different depths holds different values.
type TTKey struct {
	State StateKey
	Depth int
}

type TTEntry struct {
	Value     float64
	DepthLeft int
	BestMove  Move
	HasBest   bool
	// Hits counts lookups, for the diagnostics endpoint only.
	Hits uint32
}

// MoveCacheKey caches one candidate evaluation at one node depth.
type MoveCacheKey struct {
	State StateKey
	Depth int
	X     int
	Y     int
}

// ImmediateWinKey caches "does playing (X,Y) win on the spot" for the
// key's side to move.
type ImmediateWinKey struct {
	State StateKey
	X     int
	Y     int
}

type winMemo struct {
	Has  bool
	Move Move
}

// DepthGridKey caches a finished root score grid per search depth.
type DepthGridKey struct {
	Hash      uint64
	Depth     int
	BoardSize int
	Player    PlayerColor
}

// SearchCache holds every cross-turn memo the search relies on. It is
// not goroutine safe; the owning player serializes all access.
type SearchCache struct {
	tt         map[TTKey]TTEntry
	moveScores map[MoveCacheKey]float64
	winByMove  map[ImmediateWinKey]bool
	winByState map[StateKey]winMemo
	depthGrids map[DepthGridKey][]float64
	// edges records parent -> children reachability so Reroot can drop
	// everything the game has moved past.
	edges map[StateKey][]StateKey
}

func NewSearchCache() *SearchCache {
	return &SearchCache{
		tt:         make(map[TTKey]TTEntry),
		moveScores: make(map[MoveCacheKey]float64),
		winByMove:  make(map[ImmediateWinKey]bool),
		winByState: make(map[StateKey]winMemo),
		depthGrids: make(map[DepthGridKey][]float64),
		edges:      make(map[StateKey][]StateKey),
	}
}

func (c *SearchCache) LookupTT(key TTKey) (TTEntry, bool) {
	entry, ok := c.tt[key]
	if !ok {
		return TTEntry{}, false
	}
	entry.Hits++
	c.tt[key] = entry
	return entry, true
}

// StoreTT keeps the deeper of two entries for the same key, existing
// wins ties. When the table grows past maxEntries it is dropped
// wholesale rather than evicted piecemeal.
func (c *SearchCache) StoreTT(key TTKey, entry TTEntry, maxEntries int) {
	if existing, ok := c.tt[key]; ok {
		if existing.DepthLeft >= entry.DepthLeft {
			return
		}
		entry.Hits = existing.Hits
	}
	c.tt[key] = entry
	if maxEntries > 0 && len(c.tt) > maxEntries {
		clear(c.tt)
	}
}

func (c *SearchCache) LookupMoveScore(key MoveCacheKey) (float64, bool) {
	score, ok := c.moveScores[key]
	return score, ok
}

func (c *SearchCache) StoreMoveScore(key MoveCacheKey, score float64) {
	c.moveScores[key] = score
}

func (c *SearchCache) LookupWinByMove(key ImmediateWinKey) (bool, bool) {
	win, ok := c.winByMove[key]
	return win, ok
}

func (c *SearchCache) StoreWinByMove(key ImmediateWinKey, win bool) {
	c.winByMove[key] = win
}

func (c *SearchCache) LookupWinByState(key StateKey) (winMemo, bool) {
	memo, ok := c.winByState[key]
	return memo, ok
}

func (c *SearchCache) StoreWinByState(key StateKey, memo winMemo) {
	c.winByState[key] = memo
}

// LookupDepthGrid returns a copy so callers cannot mutate the cached
// grid in place.
func (c *SearchCache) LookupDepthGrid(key DepthGridKey) ([]float64, bool) {
	grid, ok := c.depthGrids[key]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), grid...), true
}

func (c *SearchCache) StoreDepthGrid(key DepthGridKey, grid []float64) {
	c.depthGrids[key] = append([]float64(nil), grid...)
}

// AddEdge records that child is reachable from parent by one move.
// Children lists stay short, candidate truncation bounds them, so a
// linear dedup scan is enough.
func (c *SearchCache) AddEdge(parent, child StateKey) {
	children := c.edges[parent]
	for _, existing := range children {
		if existing == child {
			return
		}
	}
	c.edges[parent] = append(children, child)
}

// Reroot walks the edge graph from the given position and drops every
// cache entry not reachable from it. Depth grids are per-root and are
// always discarded. Calling Reroot twice on the same position is a
// no-op the second time.
func (c *SearchCache) Reroot(state GameState) {
	root := stateKeyOf(state)
	reachable := make(map[StateKey]struct{})
	stack := []StateKey{root}
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := reachable[key]; seen {
			continue
		}
		reachable[key] = struct{}{}
		stack = append(stack, c.edges[key]...)
	}

	for key := range c.tt {
		if _, ok := reachable[key.State]; !ok {
			delete(c.tt, key)
		}
	}
	for key := range c.moveScores {
		if _, ok := reachable[key.State]; !ok {
			delete(c.moveScores, key)
		}
	}
	for key := range c.winByMove {
		if _, ok := reachable[key.State]; !ok {
			delete(c.winByMove, key)
		}
	}
	for key := range c.winByState {
		if _, ok := reachable[key]; !ok {
			delete(c.winByState, key)
		}
	}
	for key, children := range c.edges {
		if _, ok := reachable[key]; !ok {
			delete(c.edges, key)
			continue
		}
		kept := children[:0]
		for _, child := range children {
			if _, ok := reachable[child]; ok {
				kept = append(kept, child)
			}
		}
		c.edges[key] = kept
	}
	clear(c.depthGrids)
}

func (c *SearchCache) Clear() {
	clear(c.tt)
	clear(c.moveScores)
	clear(c.winByMove)
	clear(c.winByState)
	clear(c.depthGrids)
	clear(c.edges)
}

func (c *SearchCache) TTSize() int {
	return len(c.tt)
}

// TTEntryView pairs an entry with its key for the diagnostics API.
type TTEntryView struct {
	Key   TTKey
	Entry TTEntry
}

// TopTTEntries returns the most-hit entries, deepest first among equal
// hit counts, capped at limit.
func (c *SearchCache) TopTTEntries(limit int) []TTEntryView {
	views := make([]TTEntryView, 0, len(c.tt))
	for key, entry := range c.tt {
		views = append(views, TTEntryView{Key: key, Entry: entry})
	}
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Entry.Hits != b.Entry.Hits {
			return a.Entry.Hits > b.Entry.Hits
		}
		if a.Entry.DepthLeft != b.Entry.DepthLeft {
			return a.Entry.DepthLeft > b.Entry.DepthLeft
		}
		if a.Key.State.Hash != b.Key.State.Hash {
			return a.Key.State.Hash < b.Key.State.Hash
		}
		return a.Key.Depth < b.Key.Depth
	})
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}

// Size is the total entry count across every map, used for logging and
// the diagnostics endpoint.
func (c *SearchCache) Size() int {
	return len(c.tt) + len(c.moveScores) + len(c.winByMove) + len(c.winByState) + len(c.depthGrids) + len(c.edges)
}

// CacheSnapshot is the per-map entry count DTO exposed over the
// diagnostics API and the analytics socket.
type CacheSnapshot struct {
	TTEntries  int `json:"ttEntries"`
	MoveScores int `json:"moveScores"`
	WinByMove  int `json:"winByMove"`
	WinByState int `json:"winByState"`
	DepthGrids int `json:"depthGrids"`
	Edges      int `json:"edges"`
}

func (c *SearchCache) Snapshot() CacheSnapshot {
	return CacheSnapshot{
		TTEntries:  len(c.tt),
		MoveScores: len(c.moveScores),
		WinByMove:  len(c.winByMove),
		WinByState: len(c.winByState),
		DepthGrids: len(c.depthGrids),
		Edges:      len(c.edges),
	}
}
