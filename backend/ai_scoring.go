package main

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// SearchSettings parameterizes one ScoreBoard run. Zero values pick the
// usual defaults: BoardSize from the state, Depth 1, WinScore 10000,
// TopCandidates 0 meaning no truncation, TtMaxEntries 0 meaning no cap.
type SearchSettings struct {
	Depth               int
	TimeoutMs           int
	BoardSize           int
	Player              PlayerColor
	WinScore            float64
	TopCandidates       int
	TtMaxEntries        int
	QuickWinExit        bool
	ReturnLastCompleted bool
	LogDepthScores      bool
	Weights             HeuristicConfig

	// Cache carries results across turns. The caller owns its locking.
	Cache *SearchCache

	OnGhostUpdate   func(GameState)
	OnDepthComplete func(DepthReport)
	ShouldStop      func() bool
	Stats           *SearchStats
}

// SearchStats accumulates counters over one ScoreBoard run.
type SearchStats struct {
	Nodes         int64         `json:"nodes"`
	TTHits        int64         `json:"ttHits"`
	TTStores      int64         `json:"ttStores"`
	MoveCacheHits int64         `json:"moveCacheHits"`
	Cutoffs       int64         `json:"cutoffs"`
	QuickWinExits int64         `json:"quickWinExits"`
	DepthReached  int           `json:"depthReached"`
	Elapsed       time.Duration `json:"elapsed"`
}

// DepthReport describes one completed deepening iteration. It feeds the
// analytics stream and the per-depth log line.
type DepthReport struct {
	Depth     int     `json:"depth"`
	Best      Move    `json:"best"`
	HasBest   bool    `json:"hasBest"`
	Score     float64 `json:"score"`
	Nodes     int64   `json:"nodes"`
	TTHits    int64   `json:"ttHits"`
	TTSize    int     `json:"ttSize"`
	ElapsedMs int64   `json:"elapsedMs"`
}

type searchContext struct {
	rules    Rules
	settings SearchSettings
	cache    *SearchCache
	stats    *SearchStats
	start    time.Time
}

func newSearchContext(rules Rules, settings SearchSettings) *searchContext {
	cache := settings.Cache
	if cache == nil {
		cache = NewSearchCache()
	}
	stats := settings.Stats
	if stats == nil {
		stats = &SearchStats{}
	}
	return &searchContext{
		rules:    rules,
		settings: settings,
		cache:    cache,
		stats:    stats,
		start:    time.Now(),
	}
}

// stopped reports whether the search should wind down, either because
// the caller raised its stop flag or the time budget ran out.
func (ctx *searchContext) stopped() bool {
	if ctx.settings.ShouldStop != nil && ctx.settings.ShouldStop() {
		return true
	}
	if ctx.settings.TimeoutMs <= 0 {
		return false
	}
	return time.Since(ctx.start) >= time.Duration(ctx.settings.TimeoutMs)*time.Millisecond
}

// ScoreBoard runs iterative deepening from depth 1 up to the configured
// depth and returns a per-cell score grid for the searching player.
// Cells never considered stay at illegalScore. On an empty board only
// the center cell is playable and scores 0.
func ScoreBoard(state GameState, rules Rules, settingsIn SearchSettings) []float64 {
	settings := settingsIn
	if settings.BoardSize <= 0 {
		settings.BoardSize = state.Board.Size()
	}
	settings.BoardSize = min(settings.BoardSize, state.Board.Size())
	if settings.Depth < 1 {
		settings.Depth = 1
	}
	if settings.WinScore <= 0 {
		settings.WinScore = DefaultConfig().AiWinScore
	}
	settings.Weights = settings.Weights.Resolved()

	ctx := newSearchContext(rules, settings)
	defer func() {
		ctx.stats.Elapsed = time.Since(ctx.start)
	}()

	size := settings.BoardSize
	if state.Board.StoneCount() == 0 {
		return centerOnlyGrid(size)
	}
	if len(collectCandidateMoves(state.Board)) == 0 {
		return centerOnlyGrid(size)
	}

	var scores []float64
	var lastCompleted []float64
	for depth := 1; depth <= settings.Depth; depth++ {
		if ctx.stopped() {
			break
		}
		if settings.QuickWinExit {
			if move, ok := immediateWinMove(ctx, state, settings.Player); ok {
				grid := newScoreGrid(size)
				grid[move.Y*size+move.X] = settings.WinScore
				ctx.stats.QuickWinExits++
				return grid
			}
		}
		gridKey := DepthGridKey{Hash: state.Hash, Depth: depth, BoardSize: size, Player: settings.Player}
		grid, cached := ctx.cache.LookupDepthGrid(gridKey)
		completed := true
		if !cached {
			grid, completed = scoreBoardAtDepth(state, ctx, depth)
			if completed {
				ctx.cache.StoreDepthGrid(gridKey, grid)
			}
		}
		scores = grid
		if completed {
			lastCompleted = grid
			ctx.stats.DepthReached = depth
			reportDepth(ctx, depth, grid, size)
		}
	}

	if settings.ReturnLastCompleted && lastCompleted != nil {
		return lastCompleted
	}
	if scores == nil {
		scores = newScoreGrid(size)
	}
	return scores
}

// scoreBoardAtDepth fills a score grid for every surviving root
// candidate at one fixed depth. Each root move gets the full window,
// alpha never threads across root siblings, so sibling scores stay
// comparable. The boolean result reports whether every candidate was
// searched to completion.
func scoreBoardAtDepth(state GameState, ctx *searchContext, depth int) ([]float64, bool) {
	settings := ctx.settings
	size := settings.BoardSize
	grid := newScoreGrid(size)

	rootKey := stateKeyOf(state)
	var pvPtr *Move
	if entry, ok := ctx.cache.LookupTT(TTKey{State: rootKey, Depth: depth}); ok && entry.HasBest {
		pv := entry.BestMove
		pvPtr = &pv
	}

	if settings.QuickWinExit {
		if move, ok := immediateWinMove(ctx, state, settings.Player); ok {
			grid[move.Y*size+move.X] = settings.WinScore
			ctx.stats.QuickWinExits++
			return grid, true
		}
	}

	pool := collectCandidateMoves(state.Board)
	if hasImmediateWinCached(ctx, state, otherPlayer(settings.Player)) {
		if blockers := blockingMoves(ctx, state, settings.Player, pool); len(blockers) > 0 {
			pool = blockers
		}
	}
	candidates := orderCandidates(state, ctx, settings.Player, true, settings.TopCandidates, pvPtr, pool)

	for _, move := range candidates {
		if ctx.stopped() {
			return grid, false
		}
		score, _ := evaluateMoveCached(state, ctx, settings.Player, move, depth, depth, math.Inf(-1), math.Inf(1))
		grid[move.Y*size+move.X] = score
	}
	return grid, !ctx.stopped()
}

func minimax(state GameState, ctx *searchContext, depth int, currentPlayer PlayerColor, depthFromRoot int, alpha, beta float64) float64 {
	ctx.stats.Nodes++
	if depth <= 0 || ctx.stopped() || state.Status != StatusRunning {
		return evaluateState(state, ctx.rules, ctx.settings.Weights, ctx.settings.Player, ctx.settings.WinScore)
	}

	ttKey := TTKey{State: stateKeyOf(state), Depth: depth}
	var pvPtr *Move
	if entry, ok := ctx.cache.LookupTT(ttKey); ok {
		if entry.DepthLeft >= depth {
			ctx.stats.TTHits++
			return entry.Value
		}
		if entry.HasBest {
			pv := entry.BestMove
			pvPtr = &pv
		}
	}

	maximizing := currentPlayer == ctx.settings.Player
	if ctx.settings.QuickWinExit {
		if move, ok := immediateWinMove(ctx, state, currentPlayer); ok {
			value := -ctx.settings.WinScore
			if maximizing {
				value = ctx.settings.WinScore
			}
			ctx.cache.StoreTT(ttKey, TTEntry{Value: value, DepthLeft: depth, BestMove: move, HasBest: true}, ctx.settings.TtMaxEntries)
			ctx.stats.TTStores++
			ctx.stats.QuickWinExits++
			return value
		}
	}

	pool := collectCandidateMoves(state.Board)
	if hasImmediateWinCached(ctx, state, otherPlayer(currentPlayer)) {
		// Only moves that neutralize the standing threat are worth
		// searching. When nothing blocks, search the full pool and let
		// the evaluation surface the loss.
		if blockers := blockingMoves(ctx, state, currentPlayer, pool); len(blockers) > 0 {
			pool = blockers
		}
	}
	candidates := orderCandidates(state, ctx, currentPlayer, maximizing, ctx.settings.TopCandidates, pvPtr, pool)

	best := math.Inf(-1)
	if !maximizing {
		best = math.Inf(1)
	}
	var bestMove Move
	hasBest := false
	for _, move := range candidates {
		if ctx.stopped() {
			break
		}
		value, _ := evaluateMoveCached(state, ctx, currentPlayer, move, depth, depthFromRoot, alpha, beta)
		// A candidate the current player cannot actually play scores the
		// sentinel; folding that into a min node would fabricate a cutoff.
		if value == illegalScore {
			continue
		}
		if maximizing {
			if value > best {
				best = value
				bestMove = move
				hasBest = true
			}
			alpha = math.Max(alpha, best)
		} else {
			if value < best {
				best = value
				bestMove = move
				hasBest = true
			}
			beta = math.Min(beta, best)
		}
		if beta <= alpha {
			ctx.stats.Cutoffs++
			break
		}
	}

	if math.IsInf(best, 0) {
		return 0
	}
	ctx.cache.StoreTT(ttKey, TTEntry{Value: best, DepthLeft: depth, BestMove: bestMove, HasBest: hasBest}, ctx.settings.TtMaxEntries)
	ctx.stats.TTStores++
	return best
}

// evaluateMoveCached scores one candidate at one node, going through
// the per-move cache first. Illegal moves cache illegalScore like any
// other result so the legality probe is also paid only once.
func evaluateMoveCached(state GameState, ctx *searchContext, currentPlayer PlayerColor, move Move, depthLeft, depthFromRoot int, alpha, beta float64) (float64, bool) {
	if ctx.stopped() {
		return evaluateState(state, ctx.rules, ctx.settings.Weights, ctx.settings.Player, ctx.settings.WinScore), false
	}
	parentKey := stateKeyOf(state)
	key := MoveCacheKey{State: parentKey, Depth: depthLeft, X: move.X, Y: move.Y}
	if score, ok := ctx.cache.LookupMoveScore(key); ok {
		ctx.stats.MoveCacheHits++
		return score, true
	}

	score := illegalScore
	next := state.Clone()
	if applySearchMove(&next, ctx.rules, move, currentPlayer) {
		ctx.cache.AddEdge(parentKey, stateKeyOf(next))
		if ctx.settings.OnGhostUpdate != nil {
			ctx.settings.OnGhostUpdate(next)
		}
		if depthLeft <= 1 || ctx.stopped() {
			score = evaluateState(next, ctx.rules, ctx.settings.Weights, ctx.settings.Player, ctx.settings.WinScore)
		} else {
			score = minimax(next, ctx, depthLeft-1, otherPlayer(currentPlayer), depthFromRoot+1, alpha, beta)
		}
	}
	ctx.cache.StoreMoveScore(key, score)
	return score, false
}

// applySearchMove advances a search-internal state. Status resolution
// is the simplified order capture win, alignment, draw; the pending
// alignment-break and forced-capture bookkeeping of the real game
// pipeline is deliberately not recomputed here, forced flags from the
// root do not carry into hypothetical positions.
func applySearchMove(state *GameState, rules Rules, move Move, player PlayerColor) bool {
	if ok, _ := rules.IsLegal(*state, move, player); !ok {
		return false
	}
	prevToMove := state.ToMove
	prevCapturedBlack := state.CapturedBlack
	prevCapturedWhite := state.CapturedWhite

	cell := CellFromPlayer(player)
	state.Board.Set(move.X, move.Y, cell)
	state.HasLastMove = true
	state.LastMove = move
	state.LastMessage = ""

	captures := rules.FindCaptures(state.Board, move, cell)
	for _, captured := range captures {
		state.Board.Remove(captured.X, captured.Y)
	}
	if len(captures) > 0 {
		if player == PlayerBlack {
			state.CapturedBlack += len(captures)
		} else {
			state.CapturedWhite += len(captures)
		}
	}

	switch {
	case state.CapturedBy(player) >= rules.CaptureWinStones():
		state.Status = winStatusFor(player)
	case rules.IsWin(state.Board, move):
		state.Status = winStatusFor(player)
	case rules.IsDraw(state.Board):
		state.Status = StatusDraw
	default:
		state.Status = StatusRunning
	}

	state.ToMove = otherPlayer(player)
	state.MustCapture = false
	state.ForcedCaptureMoves = nil
	UpdateHashAfterMove(state, move, player, captures, prevToMove, prevCapturedBlack, prevCapturedWhite)
	return true
}

// blockingMoves filters candidates down to replies that neutralize the
// opponent's standing immediate win: legal moves after which no winning
// placement remains. A move that ends the game on the spot qualifies,
// a finished position holds no threats.
func blockingMoves(ctx *searchContext, state GameState, currentPlayer PlayerColor, candidates []Move) []Move {
	opponent := otherPlayer(currentPlayer)
	var blockers []Move
	for _, move := range candidates {
		next := state.Clone()
		if !applySearchMove(&next, ctx.rules, move, currentPlayer) {
			continue
		}
		if hasImmediateWinCached(ctx, next, opponent) {
			continue
		}
		blockers = append(blockers, move)
	}
	return blockers
}

// collectCandidateMoves gathers every empty cell adjacent to a stone,
// in row scan order. An empty board falls back to the single center
// cell.
func collectCandidateMoves(board Board) []Move {
	size := board.Size()
	seen := make([]bool, size*size)
	var moves []Move
	hasStone := false
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if board.At(x, y) == CellEmpty {
				continue
			}
			hasStone = true
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if !board.InBounds(nx, ny) || !board.IsEmpty(nx, ny) {
						continue
					}
					idx := ny*size + nx
					if seen[idx] {
						continue
					}
					seen[idx] = true
					moves = append(moves, Move{X: nx, Y: ny})
				}
			}
		}
	}
	if !hasStone {
		center := size / 2
		moves = append(moves, Move{X: center, Y: center})
	}
	return moves
}

type scoredMove struct {
	score float64
	move  Move
}

// orderCandidates sorts the pool by the one-ply heuristic from
// currentPlayer's point of view, best first for the maximizing side and
// worst first otherwise, then splices the PV move to the front and cuts
// the list to maxCandidates. The sort is stable so equal scores keep
// scan order.
func orderCandidates(state GameState, ctx *searchContext, currentPlayer PlayerColor, maximizing bool, maxCandidates int, pvMove *Move, pool []Move) []Move {
	scored := make([]scoredMove, 0, len(pool))
	for _, move := range pool {
		scored = append(scored, scoredMove{
			score: heuristicForMove(state, ctx.rules, ctx.settings.Weights, move, currentPlayer),
			move:  move,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if maximizing {
			return scored[i].score > scored[j].score
		}
		return scored[i].score < scored[j].score
	})
	if pvMove != nil {
		for i := range scored {
			if scored[i].move.Equals(*pvMove) {
				pv := scored[i]
				copy(scored[1:i+1], scored[:i])
				scored[0] = pv
				break
			}
		}
	}
	if maxCandidates > 0 && len(scored) > maxCandidates {
		scored = scored[:maxCandidates]
	}
	moves := make([]Move, len(scored))
	for i, entry := range scored {
		moves[i] = entry.move
	}
	return moves
}

// isImmediateWin reports whether playing move right now wins for player,
// by capture count or by alignment. The placed stone is probed on a
// board copy; captured stones are counted but not lifted before the
// alignment check.
func isImmediateWin(state GameState, rules Rules, move Move, player PlayerColor) bool {
	if state.Status.Terminal() {
		return false
	}
	if ok, _ := rules.IsLegal(state, move, player); !ok {
		return false
	}
	board := state.Board.Clone()
	cell := CellFromPlayer(player)
	board.Set(move.X, move.Y, cell)
	captures := rules.FindCaptures(board, move, cell)
	if state.CapturedBy(player)+len(captures) >= rules.CaptureWinStones() {
		return true
	}
	return rules.IsWin(board, move)
}

func isImmediateWinCached(ctx *searchContext, state GameState, move Move, player PlayerColor) bool {
	key := ImmediateWinKey{State: stateKeyForPlayer(state, player), X: move.X, Y: move.Y}
	if win, ok := ctx.cache.LookupWinByMove(key); ok {
		return win
	}
	win := isImmediateWin(state, ctx.rules, move, player)
	ctx.cache.StoreWinByMove(key, win)
	return win
}

// immediateWinMove finds a winning placement for player among the
// candidate cells, memoized per position together with the move itself.
func immediateWinMove(ctx *searchContext, state GameState, player PlayerColor) (Move, bool) {
	key := stateKeyForPlayer(state, player)
	if memo, ok := ctx.cache.LookupWinByState(key); ok {
		return memo.Move, memo.Has
	}
	for _, move := range collectCandidateMoves(state.Board) {
		if isImmediateWinCached(ctx, state, move, player) {
			ctx.cache.StoreWinByState(key, winMemo{Has: true, Move: move})
			return move, true
		}
	}
	ctx.cache.StoreWinByState(key, winMemo{Has: false, Move: InvalidMove()})
	return InvalidMove(), false
}

func hasImmediateWinCached(ctx *searchContext, state GameState, player PlayerColor) bool {
	_, has := immediateWinMove(ctx, state, player)
	return has
}

func reportDepth(ctx *searchContext, depth int, grid []float64, size int) {
	best, bestScore := bestCellInGrid(grid, size)
	hasBest := bestScore != illegalScore
	if ctx.settings.LogDepthScores && hasBest {
		log.Debug().
			Int("depth", depth).
			Int("x", best.X).
			Int("y", best.Y).
			Float64("score", bestScore).
			Msg("depth best move")
	}
	if ctx.settings.OnDepthComplete != nil {
		ctx.settings.OnDepthComplete(DepthReport{
			Depth:     depth,
			Best:      best,
			HasBest:   hasBest,
			Score:     bestScore,
			Nodes:     ctx.stats.Nodes,
			TTHits:    ctx.stats.TTHits,
			TTSize:    ctx.cache.TTSize(),
			ElapsedMs: time.Since(ctx.start).Milliseconds(),
		})
	}
}

// bestCellInGrid scans row by row with a strict greater-than, so the
// first cell of a tie wins.
func bestCellInGrid(grid []float64, size int) (Move, float64) {
	best := math.Inf(-1)
	bestMove := InvalidMove()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if score := grid[y*size+x]; score > best {
				best = score
				bestMove = Move{X: x, Y: y}
			}
		}
	}
	return bestMove, best
}

func newScoreGrid(size int) []float64 {
	grid := make([]float64, size*size)
	for i := range grid {
		grid[i] = illegalScore
	}
	return grid
}

func centerOnlyGrid(size int) []float64 {
	grid := newScoreGrid(size)
	center := size / 2
	grid[center*size+center] = 0
	return grid
}

func winStatusFor(player PlayerColor) GameStatus {
	if player == PlayerBlack {
		return StatusBlackWon
	}
	return StatusWhiteWon
}
