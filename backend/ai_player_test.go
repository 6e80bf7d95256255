package main

import (
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func testAIConfig() Config {
	cfg := DefaultConfig()
	cfg.AiDepth = 1
	cfg.AiPonderingEnabled = false
	cfg.GhostMode = false
	return cfg
}

func newTestAIPlayer(t *testing.T, cfg Config) *AIPlayer {
	t.Helper()
	player := NewAIPlayer(NewConfigStore(cfg))
	t.Cleanup(player.Close)
	return player
}

func TestChooseMoveReturnsLegalMove(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	player := newTestAIPlayer(t, testAIConfig())

	state := runningState(t, settings, nil, PlayerWhite)
	state.Board.Set(4, 4, CellBlack)
	state.Hash = ComputeHash(state)

	move := player.ChooseMove(state, rules)
	if !move.IsValid(settings.BoardSize) {
		t.Fatalf("expected a valid move, got %+v", move)
	}
	if ok, reason := rules.IsLegal(state, move, PlayerWhite); !ok {
		t.Fatalf("chosen move %+v is illegal: %s", move, reason)
	}
	if player.CacheSize() == 0 {
		t.Fatalf("a search must leave cache entries behind")
	}
}

func TestChooseMoveNoLegalMove(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 5
	rules := NewRules(settings)
	player := newTestAIPlayer(t, testAIConfig())

	// Full board with runs capped at two, so the game is still running
	// but nothing is playable.
	rows := []string{
		"XXOOX",
		"OOXXO",
		"XXOOX",
		"OOXXO",
		"XXOOX",
	}
	state := runningState(t, settings, rows, PlayerBlack)
	if move := player.ChooseMove(state, rules); !move.Equals(InvalidMove()) {
		t.Fatalf("full board must yield the invalid sentinel, got %+v", move)
	}
}

func TestStartThinkingDeliversMove(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	player := newTestAIPlayer(t, testAIConfig())

	state := runningState(t, settings, nil, PlayerWhite)
	state.Board.Set(4, 4, CellBlack)
	state.Hash = ComputeHash(state)

	player.StartThinking(state, rules, ThinkCallbacks{})
	deadline := time.Now().Add(5 * time.Second)
	for !player.HasMoveReady() {
		if time.Now().After(deadline) {
			t.Fatalf("search never produced a move")
		}
		time.Sleep(time.Millisecond)
	}
	move := player.TakeMove()
	if ok, reason := rules.IsLegal(state, move, PlayerWhite); !ok {
		t.Fatalf("background search produced illegal move %+v: %s", move, reason)
	}
	if player.HasMoveReady() {
		t.Fatalf("TakeMove must consume the ready flag")
	}
}

func TestStartThinkingRejectsConcurrentSearch(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	player := newTestAIPlayer(t, testAIConfig())

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(4, 4, CellWhite)
	state.Hash = ComputeHash(state)

	// Simulate an already-running search: the CAS must reject the call
	// before it spawns a worker.
	player.thinking.Store(true)
	player.StartThinking(state, rules, ThinkCallbacks{})
	if player.workerDone != nil {
		t.Fatalf("second StartThinking must be rejected, not queued")
	}
	player.thinking.Store(false)
}

func TestStartThinkingPublishesGhostBoards(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	cfg := testAIConfig()
	cfg.GhostMode = true
	cfg.AiGhostThrottleMs = 0
	cfg.AiDepth = 2
	player := newTestAIPlayer(t, cfg)

	state := runningState(t, settings, nil, PlayerWhite)
	state.Board.Set(4, 4, CellBlack)
	state.Board.Set(5, 5, CellWhite)
	state.Hash = ComputeHash(state)

	var ghosts atomic.Int64
	player.StartThinking(state, rules, ThinkCallbacks{
		OnGhost: func(GameState) { ghosts.Add(1) },
	})
	deadline := time.Now().Add(5 * time.Second)
	for !player.HasMoveReady() {
		if time.Now().After(deadline) {
			t.Fatalf("search never finished")
		}
		time.Sleep(time.Millisecond)
	}
	if ghosts.Load() == 0 {
		t.Fatalf("expected ghost updates with throttling off")
	}
}

func TestTakePonderedMoveChecksPosition(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	player := newTestAIPlayer(t, testAIConfig())

	state := runningState(t, settings, nil, PlayerWhite)
	state.Board.Set(4, 4, CellBlack)
	state.Hash = ComputeHash(state)

	// Plant a pondered result by hand for exactly this position.
	player.ponderMu.Lock()
	player.ponderKey = stateKeyOf(state)
	player.ponderMove = Move{X: 5, Y: 5}
	player.ponderReady.Store(true)
	player.ponderMu.Unlock()

	move, ok := player.TakePonderedMove(state, rules)
	if !ok || !move.Equals(Move{X: 5, Y: 5}) {
		t.Fatalf("expected the pondered move for the matching position, got %+v ok=%v", move, ok)
	}
	if _, ok := player.TakePonderedMove(state, rules); ok {
		t.Fatalf("a pondered move must be handed over only once")
	}

	// A result for a different position never leaks.
	player.ponderMu.Lock()
	player.ponderKey = StateKey{Hash: 1234}
	player.ponderMove = Move{X: 5, Y: 5}
	player.ponderReady.Store(true)
	player.ponderMu.Unlock()
	if _, ok := player.TakePonderedMove(state, rules); ok {
		t.Fatalf("stale pondered move must be rejected")
	}
}

func TestOnMoveAppliedReroots(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	player := newTestAIPlayer(t, testAIConfig())

	state := runningState(t, settings, nil, PlayerWhite)
	state.Board.Set(4, 4, CellBlack)
	state.Hash = ComputeHash(state)

	player.ChooseMove(state, rules)
	player.OnMoveApplied(state, rules)

	player.cacheMu.Lock()
	before := player.cache.Snapshot()
	player.cacheMu.Unlock()

	player.OnMoveApplied(state, rules)
	player.cacheMu.Lock()
	after := player.cache.Snapshot()
	player.cacheMu.Unlock()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rerooting the same position twice must be stable: %+v vs %+v", before, after)
	}
}

func TestEnsureWeightsDropsCachesOnChange(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	store := NewConfigStore(testAIConfig())
	player := NewAIPlayer(store)
	t.Cleanup(player.Close)

	state := runningState(t, settings, nil, PlayerWhite)
	state.Board.Set(4, 4, CellBlack)
	state.Hash = ComputeHash(state)

	player.ChooseMove(state, rules)
	player.cacheMu.Lock()
	populated := player.cache.Size()
	player.cacheMu.Unlock()
	if populated == 0 {
		t.Fatalf("expected a populated cache after a search")
	}

	weights := DefaultHeuristics()
	weights.LineExtend = 3
	player.SetHeuristicsOverride(&weights)
	player.cacheMu.Lock()
	player.ensureWeights(store.GetConfig())
	size := player.cache.Size()
	player.cacheMu.Unlock()
	if size != 0 {
		t.Fatalf("weight change must drop the caches, %d entries left", size)
	}
}

func TestBestMoveFromScoresSkipsIllegalCells(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 5
	rules := NewRules(settings)

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(2, 2, CellWhite)

	grid := newScoreGrid(5)
	grid[2*5+2] = 50 // occupied, must be skipped
	grid[1*5+1] = 10
	grid[3*5+3] = 20

	move, ok := bestMoveFromScores(grid, state, rules, 5)
	if !ok || !move.Equals(Move{X: 3, Y: 3}) {
		t.Fatalf("expected the best legal cell (3,3), got %+v ok=%v", move, ok)
	}

	// Nothing legal at all yields no move.
	empty := newScoreGrid(5)
	empty[2*5+2] = 50
	if _, ok := bestMoveFromScores(empty, state, rules, 5); ok {
		t.Fatalf("expected no move when every scored cell is illegal")
	}
}
