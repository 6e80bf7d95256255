package main

import (
	"math"
	"reflect"
	"testing"
)

func TestScoreBoardEmptyBoardCenterOnly(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := runningState(t, settings, nil, PlayerBlack)

	grid := ScoreBoard(state, rules, SearchSettings{Depth: 3, Player: PlayerBlack})
	size := settings.BoardSize
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			score := grid[y*size+x]
			if x == 9 && y == 9 {
				if score != 0 {
					t.Fatalf("center must score 0, got %v", score)
				}
				continue
			}
			if score != illegalScore {
				t.Fatalf("cell (%d,%d) must stay at the sentinel, got %v", x, y, score)
			}
		}
	}
}

func TestScoreBoardQuickWinExit(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)

	state := runningState(t, settings, nil, PlayerBlack)
	for x := 0; x <= 3; x++ {
		state.Board.Set(x, 0, CellBlack)
	}
	state.Hash = ComputeHash(state)

	stats := &SearchStats{}
	grid := ScoreBoard(state, rules, SearchSettings{
		Depth:        3,
		Player:       PlayerBlack,
		WinScore:     10000,
		QuickWinExit: true,
		Stats:        stats,
	})
	size := settings.BoardSize
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			score := grid[y*size+x]
			if x == 4 && y == 0 {
				if score != 10000 {
					t.Fatalf("winning cell must carry the win score, got %v", score)
				}
				continue
			}
			if score != illegalScore {
				t.Fatalf("non-winning cell (%d,%d) scored %v", x, y, score)
			}
		}
	}
	if stats.QuickWinExits == 0 {
		t.Fatalf("expected the quick-win exit to fire")
	}
}

func TestScoreBoardMustBlockSurvivesTruncation(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)

	// White threatens to complete five at (4,0). Even with the candidate
	// list cut to a single move, the blocker is the one that gets scored.
	state := runningState(t, settings, nil, PlayerBlack)
	for x := 0; x <= 3; x++ {
		state.Board.Set(x, 0, CellWhite)
	}
	state.Hash = ComputeHash(state)

	grid := ScoreBoard(state, rules, SearchSettings{
		Depth:         1,
		Player:        PlayerBlack,
		WinScore:      10000,
		TopCandidates: 1,
	})
	size := settings.BoardSize
	scoredCells := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if grid[y*size+x] == illegalScore {
				continue
			}
			scoredCells++
			if x != 4 || y != 0 {
				t.Fatalf("expected only the blocker (4,0) to be scored, found (%d,%d)", x, y)
			}
		}
	}
	if scoredCells != 1 {
		t.Fatalf("expected exactly one scored cell, got %d", scoredCells)
	}
	if best, _ := bestCellInGrid(grid, size); !best.Equals(Move{X: 4, Y: 0}) {
		t.Fatalf("best cell must be the blocker, got %+v", best)
	}
}

func TestMinimaxReturnsStoredTTValue(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(4, 4, CellBlack)
	state.Hash = ComputeHash(state)

	cache := NewSearchCache()
	stats := &SearchStats{}
	ctx := newSearchContext(rules, SearchSettings{
		Depth:    2,
		Player:   PlayerBlack,
		WinScore: 10000,
		Weights:  DefaultHeuristics(),
		Cache:    cache,
		Stats:    stats,
	})
	key := TTKey{State: stateKeyOf(state), Depth: 2}
	cache.StoreTT(key, TTEntry{Value: 123.5, DepthLeft: 2}, 0)

	value := minimax(state, ctx, 2, PlayerBlack, 0, math.Inf(-1), math.Inf(1))
	if value != 123.5 {
		t.Fatalf("expected the stored value to be authoritative, got %v", value)
	}
	if stats.TTHits != 1 {
		t.Fatalf("expected 1 TT hit, got %d", stats.TTHits)
	}
	if stats.Nodes != 1 {
		t.Fatalf("expected the search to stop at the root, got %d nodes", stats.Nodes)
	}
}

// bruteForceValue mirrors the search semantics without alpha-beta or
// caching: same candidate pool, same leaf evaluation, same skip of
// unplayable moves.
func bruteForceValue(state GameState, rules Rules, weights HeuristicConfig, forPlayer, current PlayerColor, depth int, winScore float64, nodes *int) float64 {
	*nodes++
	if depth <= 0 || state.Status != StatusRunning {
		return evaluateState(state, rules, weights, forPlayer, winScore)
	}
	maximizing := current == forPlayer
	best := math.Inf(-1)
	if !maximizing {
		best = math.Inf(1)
	}
	for _, move := range collectCandidateMoves(state.Board) {
		next := state.Clone()
		if !applySearchMove(&next, rules, move, current) {
			continue
		}
		var value float64
		if depth <= 1 {
			value = evaluateState(next, rules, weights, forPlayer, winScore)
		} else {
			value = bruteForceValue(next, rules, weights, forPlayer, otherPlayer(current), depth-1, winScore, nodes)
		}
		if maximizing {
			best = math.Max(best, value)
		} else {
			best = math.Min(best, value)
		}
	}
	if math.IsInf(best, 0) {
		return 0
	}
	return best
}

func TestMinimaxMatchesBruteForce(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 7
	rules := NewRules(settings)
	weights := DefaultHeuristics()
	const winScore = 10000.0

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(3, 3, CellBlack)
	state.Board.Set(4, 3, CellBlack)
	state.Board.Set(2, 3, CellWhite)
	state.Hash = ComputeHash(state)

	// The cross-check only holds while nobody has a one-move win, since
	// the search prunes to blockers in that case.
	for _, player := range []PlayerColor{PlayerBlack, PlayerWhite} {
		for _, move := range collectCandidateMoves(state.Board) {
			if isImmediateWin(state, rules, move, player) {
				t.Fatalf("setup must not contain an immediate win, found %+v for %v", move, player)
			}
		}
	}

	stats := &SearchStats{}
	ctx := newSearchContext(rules, SearchSettings{
		Depth:    3,
		Player:   PlayerBlack,
		WinScore: winScore,
		Weights:  weights,
		Cache:    NewSearchCache(),
		Stats:    stats,
	})
	got := minimax(state, ctx, 3, PlayerBlack, 0, math.Inf(-1), math.Inf(1))

	bruteNodes := 0
	want := bruteForceValue(state, rules, weights, PlayerBlack, PlayerBlack, 3, winScore, &bruteNodes)
	if got != want {
		t.Fatalf("alpha-beta value %v diverged from plain minimax %v", got, want)
	}
	if stats.Nodes > int64(bruteNodes) {
		t.Fatalf("pruned search visited %d nodes, plain search only %d", stats.Nodes, bruteNodes)
	}
}

func TestScoreBoardDepthOneMatchesChildEvaluation(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 7
	rules := NewRules(settings)
	weights := DefaultHeuristics()
	const winScore = 10000.0

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(3, 3, CellBlack)
	state.Board.Set(4, 3, CellBlack)
	state.Board.Set(2, 3, CellWhite)
	state.Hash = ComputeHash(state)

	grid := ScoreBoard(state, rules, SearchSettings{
		Depth:    1,
		Player:   PlayerBlack,
		WinScore: winScore,
		Weights:  weights,
	})
	size := settings.BoardSize
	for _, move := range collectCandidateMoves(state.Board) {
		next := state.Clone()
		if !applySearchMove(&next, rules, move, PlayerBlack) {
			continue
		}
		want := evaluateState(next, rules, weights, PlayerBlack, winScore)
		if got := grid[move.Y*size+move.X]; got != want {
			t.Fatalf("cell (%d,%d): grid %v, direct evaluation %v", move.X, move.Y, got, want)
		}
	}
}

func TestScoreBoardDoesNotMutateInput(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 7
	rules := NewRules(settings)

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(3, 3, CellBlack)
	state.Board.Set(3, 4, CellWhite)
	state.Hash = ComputeHash(state)
	snapshot := state.Clone()

	ScoreBoard(state, rules, SearchSettings{Depth: 2, Player: PlayerBlack, WinScore: 10000})

	if !reflect.DeepEqual(state.Board, snapshot.Board) {
		t.Fatalf("search must not mutate the caller's board")
	}
	if state.Hash != snapshot.Hash || state.ToMove != snapshot.ToMove {
		t.Fatalf("search must not mutate the caller's state")
	}
}

func TestScoreBoardReusesCachedDepthGrids(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 7
	rules := NewRules(settings)

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(3, 3, CellBlack)
	state.Board.Set(3, 4, CellWhite)
	state.Hash = ComputeHash(state)

	cache := NewSearchCache()
	first := ScoreBoard(state, rules, SearchSettings{
		Depth: 2, Player: PlayerBlack, WinScore: 10000, Cache: cache,
	})

	stats := &SearchStats{}
	second := ScoreBoard(state, rules, SearchSettings{
		Depth: 2, Player: PlayerBlack, WinScore: 10000, Cache: cache, Stats: stats,
	})
	if stats.Nodes != 0 {
		t.Fatalf("second run must come from the depth-grid cache, searched %d nodes", stats.Nodes)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached grid diverged from the computed one")
	}
}

func TestOrderCandidatesPVSpliceAndTruncation(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	state := runningState(t, settings, nil, PlayerBlack)

	ctx := newSearchContext(rules, SearchSettings{
		Player:  PlayerBlack,
		Weights: DefaultHeuristics(),
		Cache:   NewSearchCache(),
	})
	// Heuristic on an empty board is pure edge penalty: center 0,
	// near-edge -2, corner -4.
	pool := []Move{{X: 0, Y: 0}, {X: 1, Y: 4}, {X: 4, Y: 4}}

	ordered := orderCandidates(state, ctx, PlayerBlack, true, 0, nil, pool)
	want := []Move{{X: 4, Y: 4}, {X: 1, Y: 4}, {X: 0, Y: 0}}
	if !reflect.DeepEqual(ordered, want) {
		t.Fatalf("maximizer ordering wrong: %+v", ordered)
	}

	reversed := orderCandidates(state, ctx, PlayerBlack, false, 0, nil, pool)
	wantReversed := []Move{{X: 0, Y: 0}, {X: 1, Y: 4}, {X: 4, Y: 4}}
	if !reflect.DeepEqual(reversed, wantReversed) {
		t.Fatalf("minimizer ordering wrong: %+v", reversed)
	}

	pv := Move{X: 0, Y: 0}
	spliced := orderCandidates(state, ctx, PlayerBlack, true, 2, &pv, pool)
	wantSpliced := []Move{{X: 0, Y: 0}, {X: 4, Y: 4}}
	if !reflect.DeepEqual(spliced, wantSpliced) {
		t.Fatalf("PV splice plus truncation wrong: %+v", spliced)
	}
}

func TestCollectCandidateMoves(t *testing.T) {
	board := NewBoard(9)
	if moves := collectCandidateMoves(board); len(moves) != 1 || !moves[0].Equals(Move{X: 4, Y: 4}) {
		t.Fatalf("empty board must yield the single center candidate, got %+v", moves)
	}

	board.Set(0, 0, CellBlack)
	moves := collectCandidateMoves(board)
	if len(moves) != 3 {
		t.Fatalf("corner stone has 3 empty neighbors, got %+v", moves)
	}
	for _, want := range []Move{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		if !containsMove(moves, want) {
			t.Fatalf("expected neighbor %+v in %+v", want, moves)
		}
	}
}
