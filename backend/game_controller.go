package main

import (
	"sync"

	"github.com/rs/zerolog"
)

// GameController serializes all access to one Game. The tick loop and
// the HTTP/WS handlers of a session share it.
type GameController struct {
	mu             sync.Mutex
	game           Game
	ghostEnabled   func() bool
	ghostPublisher func(ghostPayload)
	depthPublisher func(PlayerColor, DepthReport)
}

func NewGameController(settings GameSettings, store *ConfigStore, logger zerolog.Logger) *GameController {
	return &GameController{game: NewGame(settings, store, logger)}
}

func (gc *GameController) SetPublishers(enabled func() bool, ghost func(ghostPayload), depth func(PlayerColor, DepthReport)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.ghostEnabled = enabled
	gc.ghostPublisher = ghost
	gc.depthPublisher = depth
}

// SubmitHumanMove drops a move into the human's pending slot; the next
// tick applies it.
func (gc *GameController) SubmitHumanMove(x, y int) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SubmitHumanMove(Move{X: x, Y: y})
}

// ApplyHumanMove applies a move synchronously, for the REST path.
func (gc *GameController) ApplyHumanMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if !gc.game.CurrentPlayerIsHuman() {
		return false, "not human turn"
	}
	return gc.game.TryApplyMove(move)
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	ghostEnabled := false
	if gc.ghostEnabled != nil {
		ghostEnabled = gc.ghostEnabled()
	}
	return gc.game.Tick(ghostEnabled, gc.ghostPublisher, gc.depthPublisher)
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.settings
}

func (gc *GameController) ConfigSnapshot() Config {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.configStore.GetConfig()
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TurnStartedAtMs()
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History().Last()
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

func (gc *GameController) HasGhostBoard() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.HasGhostBoard()
}

func (gc *GameController) GhostBoard() (Board, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.GhostBoard()
}

func (gc *GameController) Reset(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
}

func (gc *GameController) StartGame(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
	gc.game.Start()
}

func (gc *GameController) UpdateSettings(update GameSettings, reset bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if reset || update.BoardSize != gc.game.settings.BoardSize {
		gc.game.Reset(update)
		return
	}
	gc.game.ApplySeatChange(update)
}

func (gc *GameController) ResetForConfigChange() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.ResetForConfigChange()
}

func (gc *GameController) SearchDiagnostics() []seatDiagnostics {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SearchDiagnostics()
}

func (gc *GameController) SeatTTEntries(limit int) []seatTTEntries {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SeatTTEntries(limit)
}

func (gc *GameController) ClearSearchCaches() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.ClearSearchCaches()
}

func (gc *GameController) Close() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Close()
}
