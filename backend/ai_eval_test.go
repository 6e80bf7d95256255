package main

import "testing"

func TestHeuristicForMoveIllegal(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	weights := DefaultHeuristics()

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(4, 4, CellWhite)

	if score := heuristicForMove(state, rules, weights, Move{X: 4, Y: 4}, PlayerBlack); score != illegalScore {
		t.Fatalf("occupied cell must score the sentinel, got %v", score)
	}
	if score := heuristicForMove(state, rules, weights, Move{X: -1, Y: 0}, PlayerBlack); score != illegalScore {
		t.Fatalf("out-of-bounds move must score the sentinel, got %v", score)
	}
}

func TestHeuristicForMoveWinReach(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	weights := DefaultHeuristics()

	state := runningState(t, settings, nil, PlayerBlack)
	for x := 2; x <= 5; x++ {
		state.Board.Set(x, 4, CellBlack)
	}

	// Completing the five: length 5 times LineExtend plus WinReach.
	winning := heuristicForMove(state, rules, weights, Move{X: 6, Y: 4}, PlayerBlack)
	if winning != 5*weights.LineExtend+weights.WinReach {
		t.Fatalf("unexpected winning-move score %v", winning)
	}

	quiet := heuristicForMove(state, rules, weights, Move{X: 0, Y: 8}, PlayerBlack)
	if winning <= quiet {
		t.Fatalf("winning move (%v) must outscore a quiet corner (%v)", winning, quiet)
	}
}

func TestHeuristicForMoveCaptureScoring(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	weights := DefaultHeuristics()

	state := runningState(t, settings, nil, PlayerBlack)
	state.Board.Set(5, 4, CellWhite)
	state.Board.Set(6, 4, CellWhite)
	state.Board.Set(7, 4, CellBlack)
	move := Move{X: 4, Y: 4}

	// One captured pair, a blocked opponent run of two, no edge penalty.
	base := weights.CapturePair + 2*weights.BlockRun + weights.BlockedEnd
	if score := heuristicForMove(state, rules, weights, move, PlayerBlack); score != base {
		t.Fatalf("expected %v for a plain capture, got %v", base, score)
	}

	// At eight stones already captured the pair crosses the threshold.
	state.CapturedBlack = 8
	if score := heuristicForMove(state, rules, weights, move, PlayerBlack); score != base+weights.CaptureThreshold {
		t.Fatalf("expected threshold bonus, got %v", score)
	}
}

func TestHeuristicForMoveEdgePenalty(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	weights := DefaultHeuristics()
	state := runningState(t, settings, nil, PlayerBlack)

	corner := heuristicForMove(state, rules, weights, Move{X: 0, Y: 0}, PlayerBlack)
	if corner != -2*weights.EdgePenalty {
		t.Fatalf("corner penalty wrong: %v", corner)
	}
	nearEdge := heuristicForMove(state, rules, weights, Move{X: 1, Y: 4}, PlayerBlack)
	if nearEdge != -weights.EdgePenalty {
		t.Fatalf("near-edge penalty wrong: %v", nearEdge)
	}
	center := heuristicForMove(state, rules, weights, Move{X: 4, Y: 4}, PlayerBlack)
	if center != 0 {
		t.Fatalf("center of an empty board should score 0, got %v", center)
	}
}

func TestEvaluateStateTerminal(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	weights := DefaultHeuristics()
	const winScore = 10000.0

	state := DefaultGameState(settings)
	state.Status = StatusBlackWon
	if v := evaluateState(state, rules, weights, PlayerBlack, winScore); v != winScore {
		t.Fatalf("winner should see +winScore, got %v", v)
	}
	if v := evaluateState(state, rules, weights, PlayerWhite, winScore); v != -winScore {
		t.Fatalf("loser should see -winScore, got %v", v)
	}
	state.Status = StatusDraw
	if v := evaluateState(state, rules, weights, PlayerBlack, winScore); v != 0 {
		t.Fatalf("draw should score 0, got %v", v)
	}
}

func TestEvaluateStateEmptyBoardIsBalanced(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 9
	rules := NewRules(settings)
	weights := DefaultHeuristics()

	state := runningState(t, settings, nil, PlayerBlack)
	if v := evaluateState(state, rules, weights, PlayerBlack, 10000); v != 0 {
		t.Fatalf("empty board must evaluate to 0, got %v", v)
	}
}
