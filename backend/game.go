package main

import (
	"time"

	"github.com/rs/zerolog"
)

// Game owns the authoritative state of one match: the rules, the two
// seats, the move history and the optional suggestion search that runs
// on human turns. All methods are called from the owning controller
// goroutine; Game itself does no locking.
type Game struct {
	settings         GameSettings
	rules            Rules
	state            GameState
	history          MoveHistory
	blackPlayer      IPlayer
	whitePlayer      IPlayer
	configStore      *ConfigStore
	moveSuggestionAI *AIPlayer
	suggestionKey    StateKey
	suggestionValid  bool
	turnStart        time.Time
	log              zerolog.Logger
}

func NewGame(settings GameSettings, store *ConfigStore, logger zerolog.Logger) Game {
	g := Game{configStore: store, log: logger}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.stopMoveSuggestion(nil)
	g.closePlayers()
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
	g.createPlayers()
	g.turnStart = time.Now()
	g.logMatchup()
}

func (g *Game) Start() {
	if g.state.Status != StatusNotStarted {
		return
	}
	g.state.Status = StatusRunning
	g.turnStart = time.Now()
	g.stopMoveSuggestion(nil)
	g.syncAIPlayersToCurrentState()
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) Settings() GameSettings {
	return g.settings
}

func (g *Game) Rules() Rules {
	return g.rules
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

// TryApplyMove runs the whole turn pipeline: legality, placement,
// captures, win resolution with the alignment-break rule, the forced
// opponent capture win, draw, and finally the turn flip. Illegal moves
// come back with a reason and leave the state untouched.
func (g *Game) TryApplyMove(move Move) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, ReasonGameNotRunning
	}
	mover := g.state.ToMove
	prevCapturedBlack := g.state.CapturedBlack
	prevCapturedWhite := g.state.CapturedWhite
	player := g.currentPlayer()
	isAiMove := player != nil && !player.IsHuman()

	ok, reason := g.rules.IsLegalDefault(g.state, move)
	if !ok {
		g.state.LastMessage = "Illegal move: " + reason
		return false, g.state.LastMessage
	}
	g.stopMoveSuggestion(nil)
	g.state.LastMessage = ""
	elapsedMs := float64(time.Since(g.turnStart).Milliseconds())

	cell := CellFromPlayer(mover)
	g.state.Board.Set(move.X, move.Y, cell)
	g.state.LastMove = move
	g.state.HasLastMove = true
	g.state.MustCapture = false
	g.state.ForcedCaptureMoves = nil
	g.state.WinningLine = nil
	g.state.WinningCapturePair = nil

	entry := HistoryEntry{Move: move, Player: mover, ElapsedMs: elapsedMs, IsAi: isAiMove, Depth: move.Depth}
	entry.CapturedPositions = g.rules.FindCaptures(g.state.Board, move, cell)
	entry.CapturedCount = len(entry.CapturedPositions)
	for _, captured := range entry.CapturedPositions {
		g.state.Board.Remove(captured.X, captured.Y)
	}
	if entry.CapturedCount > 0 {
		if mover == PlayerBlack {
			g.state.CapturedBlack += entry.CapturedCount
		} else {
			g.state.CapturedWhite += entry.CapturedCount
		}
	}
	g.history.Push(entry)
	g.logMove(entry, g.state.CapturedBy(mover))

	if g.state.CapturedBy(mover) >= g.settings.CaptureWinStones {
		g.state.Status = winStatusFor(mover)
		g.logWin(mover, "capture")
		UpdateHashAfterMove(&g.state, move, mover, entry.CapturedPositions, mover, prevCapturedBlack, prevCapturedWhite)
		g.notifyAiCaches()
		return true, ""
	}

	opponent := otherPlayer(mover)
	requireCapture := false
	var forcedReplies []Move
	if g.rules.IsWin(g.state.Board, move) {
		if !g.rules.OpponentCanBreakAlignmentByCapture(g.state, opponent) {
			if line, found := g.rules.FindAlignmentLine(g.state.Board, move); found {
				g.state.WinningLine = line
			}
			g.state.Status = winStatusFor(mover)
			g.logWin(mover, "alignment")
			UpdateHashAfterMove(&g.state, move, mover, entry.CapturedPositions, mover, prevCapturedBlack, prevCapturedWhite)
			g.notifyAiCaches()
			return true, ""
		}
		// The alignment stands but a capture can still break it. The
		// game goes on with the opponent forced onto those captures.
		forcedReplies = g.rules.FindAlignmentBreakCaptures(g.state, opponent)
		requireCapture = len(forcedReplies) > 0
		g.state.LastMessage = ReasonBreakableByWin
	}

	if winMove, winCaptures, found := g.rules.FindImmediateCaptureWinMove(g.state, opponent, g.state.CapturedBy(opponent)); found {
		// Commit the current move to the hash first; the forced reply
		// is applied on top of it as its own history entry.
		UpdateHashAfterMove(&g.state, move, mover, entry.CapturedPositions, mover, prevCapturedBlack, prevCapturedWhite)
		g.applyForcedCaptureWin(opponent, winMove, winCaptures)
		g.notifyAiCaches()
		return true, ""
	}

	if g.rules.IsDraw(g.state.Board) {
		g.state.Status = StatusDraw
		g.log.Info().Msg("game drawn")
		UpdateHashAfterMove(&g.state, move, mover, entry.CapturedPositions, mover, prevCapturedBlack, prevCapturedWhite)
		g.notifyAiCaches()
		return true, ""
	}

	g.state.ToMove = opponent
	UpdateHashAfterMove(&g.state, move, mover, entry.CapturedPositions, mover, prevCapturedBlack, prevCapturedWhite)
	if requireCapture {
		g.state.MustCapture = true
		g.state.ForcedCaptureMoves = forcedReplies
	}
	g.turnStart = time.Now()
	g.notifyAiCaches()
	return true, ""
}

// applyForcedCaptureWin plays the opponent's unavoidable winning
// capture for them, as its own history entry.
func (g *Game) applyForcedCaptureWin(winner PlayerColor, winMove Move, winCaptures []Move) {
	prevCapturedBlack := g.state.CapturedBlack
	prevCapturedWhite := g.state.CapturedWhite
	prevToMove := g.state.ToMove
	g.state.ToMove = winner
	g.state.Board.Set(winMove.X, winMove.Y, CellFromPlayer(winner))
	for _, captured := range winCaptures {
		g.state.Board.Remove(captured.X, captured.Y)
	}
	if winner == PlayerBlack {
		g.state.CapturedBlack += len(winCaptures)
	} else {
		g.state.CapturedWhite += len(winCaptures)
	}
	entry := HistoryEntry{
		Move:              winMove,
		Player:            winner,
		IsAi:              !g.playerForColor(winner).IsHuman(),
		CapturedCount:     len(winCaptures),
		CapturedPositions: append([]Move(nil), winCaptures...),
	}
	g.history.Push(entry)
	g.logMove(entry, g.state.CapturedBy(winner))
	g.state.Status = winStatusFor(winner)
	g.state.LastMove = winMove
	g.state.HasLastMove = true
	g.state.WinningLine = nil
	g.state.WinningCapturePair = append([]Move(nil), winCaptures...)
	g.logWin(winner, "capture-threat")
	UpdateHashAfterMove(&g.state, winMove, winner, winCaptures, prevToMove, prevCapturedBlack, prevCapturedWhite)
}

// Tick advances the game by at most one applied move. Human turns poll
// the pending slot and keep the suggestion search warm; AI turns take a
// ready or pondered move, or start the background search.
func (g *Game) Tick(ghostEnabled bool, ghostSink func(ghostPayload), depthSink func(PlayerColor, DepthReport)) bool {
	if g.state.Status != StatusRunning {
		g.stopMoveSuggestion(ghostSink)
		return false
	}
	player := g.currentPlayer()
	if player == nil {
		g.stopMoveSuggestion(ghostSink)
		return false
	}

	if player.IsHuman() {
		if ghostEnabled && ghostSink != nil {
			g.startMoveSuggestion(ghostSink)
		} else {
			g.stopMoveSuggestion(ghostSink)
		}
		if human, ok := player.(*HumanPlayer); ok && human.HasPendingMove() {
			applied, _ := g.TryApplyMove(human.TakePendingMove())
			return applied
		}
		return false
	}

	g.stopMoveSuggestion(ghostSink)
	if ai, ok := player.(*AIPlayer); ok {
		if ai.HasMoveReady() {
			applied, _ := g.TryApplyMove(ai.TakeMove())
			return applied
		}
		if move, ok := ai.TakePonderedMove(g.state.Clone(), g.rules); ok {
			applied, _ := g.TryApplyMove(move)
			return applied
		}
		if !ai.IsThinking() {
			var cb ThinkCallbacks
			if depthSink != nil {
				mover := g.state.ToMove
				cb.OnDepth = func(report DepthReport) { depthSink(mover, report) }
			}
			if ghostEnabled && ghostSink != nil {
				cb.OnGhost = func(gs GameState) {
					ghostSink(ghostPayload{
						Mode:      ghostModePreview,
						Positions: ghostPositionsFromBoard(gs.Board),
						Active:    true,
					})
				}
			}
			ai.StartThinking(g.state.Clone(), g.rules, cb)
		}
		return false
	}

	applied, _ := g.TryApplyMove(player.ChooseMove(g.state.Clone(), g.rules))
	return applied
}

func (g *Game) SubmitHumanMove(move Move) bool {
	player := g.currentPlayer()
	if player == nil || !player.IsHuman() {
		return false
	}
	human, ok := player.(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForColor(g.state.ToMove)
}

func (g *Game) playerForColor(color PlayerColor) IPlayer {
	if color == PlayerBlack {
		return g.blackPlayer
	}
	return g.whitePlayer
}

func (g *Game) createPlayers() {
	if g.settings.BlackType == PlayerHuman {
		g.blackPlayer = NewHumanPlayer()
	} else {
		ai := NewAIPlayer(g.configStore)
		ai.SetHeuristicsOverride(g.settings.BlackHeuristics)
		g.blackPlayer = ai
	}
	if g.settings.WhiteType == PlayerHuman {
		g.whitePlayer = NewHumanPlayer()
	} else {
		ai := NewAIPlayer(g.configStore)
		ai.SetHeuristicsOverride(g.settings.WhiteHeuristics)
		g.whitePlayer = ai
	}
	if g.moveSuggestionAI == nil {
		g.moveSuggestionAI = NewAIPlayer(g.configStore)
	}
}

func (g *Game) closePlayers() {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		ai.Close()
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		ai.Close()
	}
}

func (g *Game) syncAIPlayersToCurrentState() {
	g.notifyAiCaches()
}

func (g *Game) notifyAiCaches() {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		ai.OnMoveApplied(g.state, g.rules)
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		ai.OnMoveApplied(g.state, g.rules)
	}
}

func (g *Game) HasGhostBoard() bool {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok && ai.HasGhostBoard() {
		return true
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok && ai.HasGhostBoard() {
		return true
	}
	return false
}

func (g *Game) AiThinking() bool {
	if ai, ok := g.currentPlayer().(*AIPlayer); ok {
		return ai.IsThinking()
	}
	return false
}

func (g *Game) GhostBoard() (Board, bool) {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok && ai.HasGhostBoard() {
		return ai.GhostBoardCopy(), true
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok && ai.HasGhostBoard() {
		return ai.GhostBoardCopy(), true
	}
	return Board{}, false
}

func (g *Game) ResetForConfigChange() {
	g.stopMoveSuggestion(nil)
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		ai.ResetForConfigChange()
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		ai.ResetForConfigChange()
	}
	if g.moveSuggestionAI != nil {
		g.moveSuggestionAI.ResetForConfigChange()
	}
}

// ApplySeatChange swaps player types and rule knobs without touching
// the board. Board size changes must go through Reset.
func (g *Game) ApplySeatChange(settings GameSettings) {
	g.stopMoveSuggestion(nil)
	g.closePlayers()
	g.settings = settings
	g.rules = NewRules(settings)
	g.createPlayers()
	g.syncAIPlayersToCurrentState()
}

func (g *Game) SearchDiagnostics() []seatDiagnostics {
	diags := []seatDiagnostics{}
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		diags = append(diags, seatDiagnostics{Player: PlayerBlack.String(), Stats: ai.LastSearchStats(), Caches: ai.CacheStats()})
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		diags = append(diags, seatDiagnostics{Player: PlayerWhite.String(), Stats: ai.LastSearchStats(), Caches: ai.CacheStats()})
	}
	if g.moveSuggestionAI != nil {
		diags = append(diags, seatDiagnostics{Player: "suggestion", Stats: g.moveSuggestionAI.LastSearchStats(), Caches: g.moveSuggestionAI.CacheStats()})
	}
	return diags
}

func (g *Game) SeatTTEntries(limit int) []seatTTEntries {
	seats := []seatTTEntries{}
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		entries, total := ai.TopTTEntries(limit)
		seats = append(seats, seatTTEntries{Player: PlayerBlack.String(), Total: total, Entries: entries})
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		entries, total := ai.TopTTEntries(limit)
		seats = append(seats, seatTTEntries{Player: PlayerWhite.String(), Total: total, Entries: entries})
	}
	if g.moveSuggestionAI != nil {
		entries, total := g.moveSuggestionAI.TopTTEntries(limit)
		seats = append(seats, seatTTEntries{Player: "suggestion", Total: total, Entries: entries})
	}
	return seats
}

// ClearSearchCaches aborts any running searches and drops every seat's
// caches.
func (g *Game) ClearSearchCaches() {
	g.suggestionValid = false
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		ai.StopThinking()
		ai.ClearSearchCache()
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		ai.StopThinking()
		ai.ClearSearchCache()
	}
	if g.moveSuggestionAI != nil {
		g.moveSuggestionAI.StopThinking()
		g.moveSuggestionAI.ClearSearchCache()
	}
}

// startMoveSuggestion keeps one suggestion search alive for the human's
// current position. The position key guards against restarting the
// search every tick; a new position cancels the old search first.
func (g *Game) startMoveSuggestion(ghostSink func(ghostPayload)) {
	if g.moveSuggestionAI == nil {
		g.moveSuggestionAI = NewAIPlayer(g.configStore)
	}
	state := g.state.Clone()
	key := stateKeyOf(state)
	if g.suggestionValid && g.suggestionKey == key && (g.moveSuggestionAI.IsThinking() || g.moveSuggestionAI.HasMoveReady()) {
		return
	}
	g.moveSuggestionAI.StopThinking()
	g.suggestionKey = key
	g.suggestionValid = true

	historyLen := g.history.Size()
	nextPlayer := playerToInt(state.ToMove)
	cfg := g.configStore.GetConfig()
	// The suggestion runs until the human actually moves.
	cfg.AiTimeoutMs = 0
	maxDepth := cfg.AiDepth
	cb := ThinkCallbacks{
		OnDepth: func(report DepthReport) {
			if !report.HasBest {
				return
			}
			ghostSink(ghostPayload{
				Mode:       ghostModeBestMove,
				Best:       &ghostCell{X: report.Best.X, Y: report.Best.Y, Player: nextPlayer},
				Depth:      report.Depth,
				Score:      report.Score,
				NextPlayer: nextPlayer,
				HistoryLen: historyLen,
				Active:     true,
				Final:      report.Depth >= maxDepth,
			})
		},
	}
	g.moveSuggestionAI.StartThinkingWithConfig(state, g.rules, cb, cfg)
}

func (g *Game) stopMoveSuggestion(ghostSink func(ghostPayload)) {
	g.suggestionValid = false
	if g.moveSuggestionAI != nil {
		g.moveSuggestionAI.StopThinking()
	}
	if ghostSink != nil {
		ghostSink(ghostPayload{Mode: ghostModeBestMove, Active: false})
	}
}

// Close releases the player goroutines. The game is unusable after.
func (g *Game) Close() {
	g.stopMoveSuggestion(nil)
	g.closePlayers()
	if g.moveSuggestionAI != nil {
		g.moveSuggestionAI.Close()
		g.moveSuggestionAI = nil
	}
}

func (g *Game) logMatchup() {
	g.log.Info().
		Str("black", playerTypeLabel(g.settings.BlackType)).
		Str("white", playerTypeLabel(g.settings.WhiteType)).
		Int("boardSize", g.settings.BoardSize).
		Int("winLength", g.settings.WinLength).
		Int("captureWinStones", g.settings.CaptureWinStones).
		Msg("game reset")
}

func (g *Game) logMove(entry HistoryEntry, totalCaptured int) {
	g.log.Info().
		Int("x", entry.Move.X).
		Int("y", entry.Move.Y).
		Str("player", entry.Player.String()).
		Bool("ai", entry.IsAi).
		Int("depth", entry.Depth).
		Int("captured", entry.CapturedCount).
		Int("totalCaptured", totalCaptured).
		Float64("elapsedMs", entry.ElapsedMs).
		Msg("move played")
}

func (g *Game) logWin(player PlayerColor, reason string) {
	g.log.Info().
		Str("player", player.String()).
		Str("reason", reason).
		Msg("game won")
}

func playerTypeLabel(t PlayerType) string {
	if t == PlayerAI {
		return "ai"
	}
	return "human"
}
