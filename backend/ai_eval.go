package main

// illegalScore marks a cell the heuristic may not play. It doubles as
// the "no value yet" sentinel in best-of scans, so it must sit below
// any reachable evaluation.
const illegalScore = -1e9

// heuristicForMove scores placing a stone for player at move without
// touching the board. Runs are counted outward from the still-empty
// cell, and captures are read off the flanking offsets, so no probe
// placement is needed.
func heuristicForMove(state GameState, rules Rules, weights HeuristicConfig, move Move, player PlayerColor) float64 {
	if ok, _ := rules.IsLegal(state, move, player); !ok {
		return illegalScore
	}
	board := state.Board
	selfCell := CellFromPlayer(player)
	opponentCell := CellFromPlayer(otherPlayer(player))
	score := 0.0

	size := board.Size()
	minEdgeDist := min(move.X, move.Y, size-1-move.X, size-1-move.Y)
	const edgeMargin = 2
	if minEdgeDist < edgeMargin {
		score -= float64(edgeMargin-minEdgeDist) * weights.EdgePenalty
	}

	addsWin := false
	for _, dir := range lineDirections {
		dx, dy := dir[0], dir[1]
		left := countFrom(board, move.X, move.Y, -dx, -dy, selfCell)
		right := countFrom(board, move.X, move.Y, dx, dy, selfCell)
		length := 1 + left + right
		if left+right > 0 {
			score += float64(length) * weights.LineExtend
		}
		if length >= rules.WinLength() {
			addsWin = true
		}

		oppLeft := countFrom(board, move.X, move.Y, -dx, -dy, opponentCell)
		if oppLeft > 0 {
			score += float64(oppLeft) * weights.BlockRun
			if isBlockedEnd(board, move.X, move.Y, -dx, -dy, oppLeft) {
				score += weights.BlockedEnd
			}
		}
		oppRight := countFrom(board, move.X, move.Y, dx, dy, opponentCell)
		if oppRight > 0 {
			score += float64(oppRight) * weights.BlockRun
			if isBlockedEnd(board, move.X, move.Y, dx, dy, oppRight) {
				score += weights.BlockedEnd
			}
		}
	}
	if addsWin {
		score += weights.WinReach
	}

	captures := rules.FindCaptures(board, move, selfCell)
	if len(captures) > 0 {
		pairs := len(captures) / 2
		score += weights.CapturePair * float64(pairs)
		if state.CapturedBy(player)+len(captures) >= rules.CaptureWinStones() {
			score += weights.CaptureThreshold
		}
	}
	return score
}

// evaluateState scores a position from forPlayer's point of view:
// terminal states map to 0 or the win scale, everything else is the
// best own move minus the best opponent reply, both taken over every
// empty cell. When a side has no legal move its best falls back to 0.
func evaluateState(state GameState, rules Rules, weights HeuristicConfig, forPlayer PlayerColor, winScore float64) float64 {
	switch state.Status {
	case StatusDraw:
		return 0
	case StatusBlackWon:
		if forPlayer == PlayerBlack {
			return winScore
		}
		return -winScore
	case StatusWhiteWon:
		if forPlayer == PlayerWhite {
			return winScore
		}
		return -winScore
	}

	bestSelf := illegalScore
	bestOpp := illegalScore
	opponent := otherPlayer(forPlayer)
	size := state.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !state.Board.IsEmpty(x, y) {
				continue
			}
			move := Move{X: x, Y: y}
			if s := heuristicForMove(state, rules, weights, move, forPlayer); s > bestSelf {
				bestSelf = s
			}
			if s := heuristicForMove(state, rules, weights, move, opponent); s > bestOpp {
				bestOpp = s
			}
		}
	}
	if bestSelf == illegalScore {
		bestSelf = 0
	}
	if bestOpp == illegalScore {
		bestOpp = 0
	}
	return bestSelf - bestOpp
}

// countFrom counts contiguous target stones starting one step from
// (x,y) along (dx,dy). The origin cell itself is not inspected.
func countFrom(board Board, x, y, dx, dy int, target Cell) int {
	count := 0
	cx, cy := x+dx, y+dy
	for board.InBounds(cx, cy) && board.At(cx, cy) == target {
		count++
		cx += dx
		cy += dy
	}
	return count
}

// isBlockedEnd reports whether the cell just past a run of the given
// length along (dx,dy) is unavailable, either off board or occupied.
func isBlockedEnd(board Board, x, y, dx, dy, distance int) bool {
	bx := x + (distance+1)*dx
	by := y + (distance+1)*dy
	if !board.InBounds(bx, by) {
		return true
	}
	return board.At(bx, by) != CellEmpty
}
