package main

import "fmt"

// Illegal-move reasons surfaced to callers. They are outcomes, not
// errors: the rules engine never fails, it only answers.
const (
	ReasonOutOfBounds    = "out of bounds"
	ReasonOccupied       = "occupied"
	ReasonDoubleThree    = "forbidden double three"
	ReasonMustCapture    = "must capture"
	ReasonGameNotRunning = "game not running"
	ReasonNotYourTurn    = "not your turn"
	ReasonBreakableByWin = "alignment formed but can be broken by capture"
)

var lineDirections = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

var captureRays = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
}

// Rules is a stateless oracle over boards, parameterized only by the
// game settings it was built from.
type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

func (r Rules) WinLength() int {
	return r.settings.WinLength
}

func (r Rules) CaptureWinStones() int {
	return r.settings.CaptureWinStones
}

func (r Rules) BoardSize() int {
	return r.settings.BoardSize
}

// IsLegal reports whether player may put a stone on move, with a
// human-readable reason when not. It leaves the board exactly as it
// found it.
func (r Rules) IsLegal(state GameState, move Move, player PlayerColor) (bool, string) {
	if !move.IsValid(r.settings.BoardSize) {
		return false, ReasonOutOfBounds
	}
	if player == state.ToMove && state.MustCapture {
		allowed := false
		for _, forced := range state.ForcedCaptureMoves {
			if forced.Equals(move) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, ReasonMustCapture
		}
	}
	if !state.Board.IsEmpty(move.X, move.Y) {
		return false, ReasonOccupied
	}
	forbid := r.settings.ForbidDoubleThreeWhite
	if player == PlayerBlack {
		forbid = r.settings.ForbidDoubleThreeBlack
	}
	if forbid && r.IsForbiddenDoubleThree(state.Board, move, player) {
		return false, ReasonDoubleThree
	}
	return true, ""
}

func (r Rules) IsLegalDefault(state GameState, move Move) (bool, string) {
	return r.IsLegal(state, move, state.ToMove)
}

// IsForbiddenDoubleThree places the stone, counts distinct open threes
// through it over the four line directions, and removes the stone again.
// Two or more open threes make the placement forbidden.
func (r Rules) IsForbiddenDoubleThree(board Board, move Move, player PlayerColor) bool {
	cell := CellFromPlayer(player)
	board.Set(move.X, move.Y, cell)
	defer board.Remove(move.X, move.Y)
	openThrees := 0
	for _, dir := range lineDirections {
		if r.hasOpenThreeThrough(board, move, dir[0], dir[1], cell) {
			openThrees++
			if openThrees >= 2 {
				return true
			}
		}
	}
	return false
}

// hasOpenThreeThrough scans every 5- and 6-cell window along (dx,dy)
// that covers the stone just placed at move. A window matches when it
// reads _XXX_, _XX_X_ or _X_XX_ with both outer cells empty and in
// bounds. Off-board reads as a blocker, so an edge never counts as an
// open end.
func (r Rules) hasOpenThreeThrough(board Board, move Move, dx, dy int, self Cell) bool {
	const span = 5
	var line [2*span + 1]byte
	for i := -span; i <= span; i++ {
		x := move.X + i*dx
		y := move.Y + i*dy
		mark := byte('O')
		if board.InBounds(x, y) {
			switch board.At(x, y) {
			case CellEmpty:
				mark = '_'
			case self:
				mark = 'X'
			}
		}
		line[i+span] = mark
	}
	center := span
	for start := 0; start+5 <= len(line); start++ {
		if center < start || center >= start+5 {
			continue
		}
		if matchWindow(line[start:start+5], "_XXX_") {
			return true
		}
	}
	for start := 0; start+6 <= len(line); start++ {
		if center < start || center >= start+6 {
			continue
		}
		window := line[start : start+6]
		if matchWindow(window, "_XX_X_") || matchWindow(window, "_X_XX_") {
			return true
		}
	}
	return false
}

func matchWindow(window []byte, pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if window[i] != pattern[i] {
			return false
		}
	}
	return true
}

// FindCaptures returns the opponent pairs flanked by the stone just
// placed at move, deduplicated across the eight rays. The caller removes
// them from the board and bumps the capture counter.
func (r Rules) FindCaptures(board Board, move Move, playerCell Cell) []Move {
	opponentCell := CellBlack
	if playerCell == CellBlack {
		opponentCell = CellWhite
	}
	var captures []Move
	for _, ray := range captureRays {
		dx, dy := ray[0], ray[1]
		x3, y3 := move.X+3*dx, move.Y+3*dy
		if !board.InBounds(x3, y3) {
			continue
		}
		x1, y1 := move.X+dx, move.Y+dy
		x2, y2 := move.X+2*dx, move.Y+2*dy
		if board.At(x1, y1) != opponentCell || board.At(x2, y2) != opponentCell || board.At(x3, y3) != playerCell {
			continue
		}
		captures = appendCapture(captures, Move{X: x1, Y: y1})
		captures = appendCapture(captures, Move{X: x2, Y: y2})
	}
	return captures
}

func appendCapture(captures []Move, candidate Move) []Move {
	for _, existing := range captures {
		if existing.Equals(candidate) {
			return captures
		}
	}
	return append(captures, candidate)
}

// IsWin reports whether the stone at lastMove sits in a run of at least
// the win length along any line direction.
func (r Rules) IsWin(board Board, lastMove Move) bool {
	if !lastMove.IsValid(r.settings.BoardSize) {
		return false
	}
	if board.At(lastMove.X, lastMove.Y) == CellEmpty {
		return false
	}
	for _, dir := range lineDirections {
		count := 1
		count += countRun(board, lastMove, dir[0], dir[1])
		count += countRun(board, lastMove, -dir[0], -dir[1])
		if count >= r.settings.WinLength {
			return true
		}
	}
	return false
}

func (r Rules) IsDraw(board Board) bool {
	return board.CountEmpty() == 0
}

// FindAlignmentLine returns the full maximal run through lastMove when it
// reaches the win length, for highlighting.
func (r Rules) FindAlignmentLine(board Board, lastMove Move) ([]Move, bool) {
	if !lastMove.IsValid(r.settings.BoardSize) || board.At(lastMove.X, lastMove.Y) == CellEmpty {
		return nil, false
	}
	for _, dir := range lineDirections {
		line := collectRun(board, lastMove, dir[0], dir[1])
		if len(line) >= r.settings.WinLength {
			return line, true
		}
	}
	return nil, false
}

// OpponentCanBreakAlignmentByCapture reports whether any legal opponent
// capture leaves the aligning side with no win-length run anywhere on the
// board. Full board scan, so it runs once per actual alignment event and
// never inside search.
func (r Rules) OpponentCanBreakAlignmentByCapture(afterMoveState GameState, opponent PlayerColor) bool {
	found := false
	r.scanAlignmentBreaks(afterMoveState, opponent, func(Move) bool {
		found = true
		return false
	})
	return found
}

// FindAlignmentBreakCaptures lists every capture move that would break
// the standing alignment. These become the forced replies while the
// alignment is pending.
func (r Rules) FindAlignmentBreakCaptures(afterMoveState GameState, opponent PlayerColor) []Move {
	var moves []Move
	r.scanAlignmentBreaks(afterMoveState, opponent, func(move Move) bool {
		moves = append(moves, move)
		return true
	})
	return moves
}

// scanAlignmentBreaks probes every empty cell as an opponent capture and
// reports the ones whose capture removes every winning run. visit
// returns false to stop early.
func (r Rules) scanAlignmentBreaks(afterMoveState GameState, opponent PlayerColor, visit func(Move) bool) {
	probeState := afterMoveState.Clone()
	probeState.ToMove = opponent
	opponentCell := CellFromPlayer(opponent)
	targetCell := CellFromPlayer(otherPlayer(opponent))
	size := afterMoveState.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !afterMoveState.Board.IsEmpty(x, y) {
				continue
			}
			move := Move{X: x, Y: y}
			if ok, _ := r.IsLegal(probeState, move, opponent); !ok {
				continue
			}
			boardCopy := afterMoveState.Board.Clone()
			boardCopy.Set(x, y, opponentCell)
			captures := r.FindCaptures(boardCopy, move, opponentCell)
			if len(captures) == 0 {
				continue
			}
			for _, captured := range captures {
				boardCopy.Remove(captured.X, captured.Y)
			}
			if r.hasAnyAlignment(boardCopy, targetCell) {
				continue
			}
			if !visit(move) {
				return
			}
		}
	}
}

// FindImmediateCaptureWinMove looks for a legal attacker move whose
// captures push attackerCaptured across the capture-win threshold. It
// returns the move and the captured pair positions.
func (r Rules) FindImmediateCaptureWinMove(state GameState, attacker PlayerColor, attackerCaptured int) (Move, []Move, bool) {
	if attackerCaptured+2 < r.settings.CaptureWinStones {
		return InvalidMove(), nil, false
	}
	probeState := state.Clone()
	probeState.ToMove = attacker
	probeState.MustCapture = false
	probeState.ForcedCaptureMoves = nil
	attackerCell := CellFromPlayer(attacker)
	size := state.Board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !state.Board.IsEmpty(x, y) {
				continue
			}
			move := Move{X: x, Y: y}
			if ok, _ := r.IsLegal(probeState, move, attacker); !ok {
				continue
			}
			boardCopy := state.Board.Clone()
			boardCopy.Set(x, y, attackerCell)
			captures := r.FindCaptures(boardCopy, move, attackerCell)
			if len(captures) < 2 || attackerCaptured+len(captures) < r.settings.CaptureWinStones {
				continue
			}
			return move, captures, true
		}
	}
	return InvalidMove(), nil, false
}

func (r Rules) hasAnyAlignment(board Board, playerCell Cell) bool {
	size := board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if board.At(x, y) != playerCell {
				continue
			}
			origin := Move{X: x, Y: y}
			for _, dir := range lineDirections {
				count := 1
				count += countRun(board, origin, dir[0], dir[1])
				count += countRun(board, origin, -dir[0], -dir[1])
				if count >= r.settings.WinLength {
					return true
				}
			}
		}
	}
	return false
}

// countRun counts contiguous stones of the same color as start walking
// from start along (dx,dy), excluding start itself.
func countRun(board Board, start Move, dx, dy int) int {
	target := board.At(start.X, start.Y)
	count := 0
	x, y := start.X+dx, start.Y+dy
	for board.InBounds(x, y) && board.At(x, y) == target {
		count++
		x += dx
		y += dy
	}
	return count
}

// collectRun returns the full contiguous run through start along (dx,dy),
// ordered from one end to the other.
func collectRun(board Board, start Move, dx, dy int) []Move {
	target := board.At(start.X, start.Y)
	x, y := start.X, start.Y
	for board.InBounds(x-dx, y-dy) && board.At(x-dx, y-dy) == target {
		x -= dx
		y -= dy
	}
	var line []Move
	for board.InBounds(x, y) && board.At(x, y) == target {
		line = append(line, Move{X: x, Y: y})
		x += dx
		y += dy
	}
	return line
}

func (r Rules) String() string {
	return fmt.Sprintf("Rules{win=%d, capture=%d}", r.settings.WinLength, r.settings.CaptureWinStones)
}
