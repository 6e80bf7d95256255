package main

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// ThinkCallbacks carries the optional observers of a background search.
type ThinkCallbacks struct {
	OnGhost func(GameState)
	OnDepth func(DepthReport)
}

// AIPlayer owns one SearchCache for the whole game and runs at most one
// background search at a time. The cache mutex is held for the duration
// of a whole ScoreBoard call, never per node, so searches against the
// same cache serialize while independent players run in parallel.
type AIPlayer struct {
	configStore *ConfigStore

	cacheMu     sync.Mutex
	cache       *SearchCache
	fingerprint uint64

	thinking   atomic.Bool
	moveReady  atomic.Bool
	stopSignal atomic.Bool
	workerDone chan struct{}
	moveMu     sync.Mutex
	readyMove  Move

	ghostMu     sync.Mutex
	ghostBoard  Board
	ghostActive atomic.Bool

	statsMu      sync.Mutex
	lastStats    SearchStats
	lastSnapshot CacheSnapshot

	weightsMu       sync.Mutex
	weightsOverride *HeuristicConfig

	ponderMu      sync.Mutex
	ponderCond    *sync.Cond
	ponderState   GameState
	ponderRules   Rules
	ponderVersion atomic.Uint64
	ponderKey     StateKey
	ponderMove    Move
	ponderReady   atomic.Bool
	closed        bool
}

func NewAIPlayer(store *ConfigStore) *AIPlayer {
	player := &AIPlayer{
		configStore: store,
		cache:       NewSearchCache(),
	}
	player.ponderCond = sync.NewCond(&player.ponderMu)
	player.startPonderWorker()
	return player
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

// ChooseMove runs a blocking search and returns the highest-scoring
// legal cell, or the invalid sentinel when nothing is playable.
func (a *AIPlayer) ChooseMove(state GameState, rules Rules) Move {
	cfg := a.configStore.GetConfig()
	if cfg.AiMoveDelayMs > 0 {
		time.Sleep(time.Duration(cfg.AiMoveDelayMs) * time.Millisecond)
	}
	var stats SearchStats
	a.cacheMu.Lock()
	a.ensureWeights(cfg)
	settings := a.searchSettings(cfg, state, &stats)
	scores := ScoreBoard(state, rules, settings)
	snapshot := a.cache.Snapshot()
	a.cacheMu.Unlock()
	a.recordStats(stats, snapshot)
	if cfg.AiLogSearchStats {
		logSearchStats("choose", &stats)
	}

	bestMove, ok := bestMoveFromScores(scores, state, rules, settings.BoardSize)
	if !ok {
		return InvalidMove()
	}
	bestMove.Depth = stats.DepthReached
	return bestMove
}

// StartThinking launches the search on a worker goroutine. A second
// call while one is active is rejected, not queued. The worker owns a
// clone of the state, so the live game can keep mutating.
func (a *AIPlayer) StartThinking(state GameState, rules Rules, cb ThinkCallbacks) {
	a.startThinkingWith(state, rules, cb, a.configStore.GetConfig())
}

// StartThinkingWithConfig runs the background search with an explicit
// config instead of the shared store, for callers that override knobs
// like the timeout per search.
func (a *AIPlayer) StartThinkingWithConfig(state GameState, rules Rules, cb ThinkCallbacks, cfg Config) {
	a.startThinkingWith(state, rules, cb, cfg.Normalized())
}

func (a *AIPlayer) startThinkingWith(state GameState, rules Rules, cb ThinkCallbacks, cfg Config) {
	if !a.thinking.CompareAndSwap(false, true) {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.moveReady.Store(false)
	a.ghostActive.Store(false)
	a.stopSignal.Store(false)

	stateCopy := state.Clone()
	done := make(chan struct{})
	a.workerDone = done
	go func() {
		defer close(done)
		defer a.thinking.Store(false)

		var stats SearchStats
		a.cacheMu.Lock()
		a.ensureWeights(cfg)
		settings := a.searchSettings(cfg, stateCopy, &stats)
		settings.ShouldStop = func() bool { return a.stopSignal.Load() }
		settings.OnDepthComplete = cb.OnDepth
		if cfg.GhostMode && cb.OnGhost != nil {
			settings.OnGhostUpdate = a.ghostPublisher(cfg, cb.OnGhost)
		}
		scores := ScoreBoard(stateCopy, rules, settings)
		snapshot := a.cache.Snapshot()
		a.cacheMu.Unlock()
		a.recordStats(stats, snapshot)

		if a.stopSignal.Load() {
			a.moveReady.Store(false)
			a.ghostActive.Store(false)
			return
		}
		if cfg.AiLogSearchStats {
			logSearchStats("think", &stats)
		}
		bestMove, ok := bestMoveFromScores(scores, stateCopy, rules, settings.BoardSize)
		a.moveMu.Lock()
		if ok {
			bestMove.Depth = stats.DepthReached
			a.readyMove = bestMove
		} else {
			a.readyMove = InvalidMove()
		}
		a.moveMu.Unlock()
		a.moveReady.Store(true)
		a.ghostActive.Store(false)
	}()
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() Move {
	a.moveMu.Lock()
	defer a.moveMu.Unlock()
	a.moveReady.Store(false)
	return a.readyMove
}

// StopThinking asks the in-flight search, if any, to wind down at its
// next suspension point. The next StartThinking clears the flag.
func (a *AIPlayer) StopThinking() {
	a.stopSignal.Store(true)
}

func (a *AIPlayer) HasGhostBoard() bool {
	return a.ghostActive.Load()
}

func (a *AIPlayer) GhostBoardCopy() Board {
	a.ghostMu.Lock()
	defer a.ghostMu.Unlock()
	return a.ghostBoard.Clone()
}

// OnMoveApplied is called after the real game applies any move, by this
// side or the other. It aborts a stale ponder, re-roots every cache to
// the subtree reachable from the new position, and hands the position
// to the ponder worker.
func (a *AIPlayer) OnMoveApplied(state GameState, rules Rules) {
	a.ponderVersion.Add(1)
	a.ponderReady.Store(false)
	a.cacheMu.Lock()
	a.cache.Reroot(state)
	a.cacheMu.Unlock()
	a.updatePonderState(state, rules)
}

// ResetForConfigChange pulses the stop flag so an in-flight search
// abandons results computed under the old settings. Weight changes are
// caught separately by the fingerprint check at the next search.
func (a *AIPlayer) ResetForConfigChange() {
	a.stopSignal.Store(true)
	a.ponderReady.Store(false)
	a.stopSignal.Store(false)
}

// SetHeuristicsOverride pins per-side weights that take precedence over
// the shared config. Passing nil reverts to the config table.
func (a *AIPlayer) SetHeuristicsOverride(weights *HeuristicConfig) {
	a.weightsMu.Lock()
	if weights == nil {
		a.weightsOverride = nil
	} else {
		w := *weights
		a.weightsOverride = &w
	}
	a.weightsMu.Unlock()
}

func (a *AIPlayer) CacheSize() int {
	snapshot := a.CacheStats()
	return snapshot.TTEntries + snapshot.MoveScores + snapshot.WinByMove + snapshot.WinByState + snapshot.DepthGrids + snapshot.Edges
}

// CacheStats returns the snapshot taken at the end of the last search,
// so diagnostics never block behind a running one.
func (a *AIPlayer) CacheStats() CacheSnapshot {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	return a.lastSnapshot
}

func (a *AIPlayer) LastSearchStats() SearchStats {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	return a.lastStats
}

// TopTTEntries waits for any running search to release the cache, then
// returns the most-hit transposition entries and the table size.
func (a *AIPlayer) TopTTEntries(limit int) ([]TTEntryView, int) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	return a.cache.TopTTEntries(limit), a.cache.TTSize()
}

// ClearSearchCache drops every cached search result. Callers that need
// it to take effect promptly should StopThinking first.
func (a *AIPlayer) ClearSearchCache() {
	a.cacheMu.Lock()
	a.cache.Clear()
	a.cacheMu.Unlock()
	a.statsMu.Lock()
	a.lastSnapshot = CacheSnapshot{}
	a.statsMu.Unlock()
}

// Close stops the ponder worker and flags any in-flight search to stop.
func (a *AIPlayer) Close() {
	a.stopSignal.Store(true)
	a.ponderMu.Lock()
	a.closed = true
	a.ponderCond.Broadcast()
	a.ponderMu.Unlock()
}

func (a *AIPlayer) startPonderWorker() {
	go func() {
		var lastVersion uint64
		for {
			a.ponderMu.Lock()
			for !a.closed && a.ponderVersion.Load() == lastVersion {
				a.ponderCond.Wait()
			}
			if a.closed {
				a.ponderMu.Unlock()
				return
			}
			state := a.ponderState.Clone()
			rules := a.ponderRules
			version := a.ponderVersion.Load()
			lastVersion = version
			a.ponderMu.Unlock()

			cfg := a.configStore.GetConfig()
			if !cfg.AiPonderingEnabled || state.Status != StatusRunning {
				continue
			}
			a.runPonder(state, rules, cfg, version)
		}
	}()
}

// runPonder searches the latest applied position for whichever side
// moves next. When that side is this AI the result short-circuits the
// next turn; either way the shared caches come out warm.
func (a *AIPlayer) runPonder(state GameState, rules Rules, cfg Config, version uint64) {
	var stats SearchStats
	a.cacheMu.Lock()
	a.ensureWeights(cfg)
	settings := a.searchSettings(cfg, state, &stats)
	settings.ShouldStop = func() bool {
		return a.stopSignal.Load() || a.ponderVersion.Load() != version
	}
	scores := ScoreBoard(state, rules, settings)
	snapshot := a.cache.Snapshot()
	a.cacheMu.Unlock()
	a.recordStats(stats, snapshot)

	if a.stopSignal.Load() || a.ponderVersion.Load() != version {
		return
	}
	bestMove, ok := bestMoveFromScores(scores, state, rules, settings.BoardSize)
	if !ok {
		return
	}
	if cfg.AiLogSearchStats {
		logSearchStats("ponder", &stats)
	}
	bestMove.Depth = stats.DepthReached
	key := stateKeyOf(state)
	a.ponderMu.Lock()
	if a.ponderVersion.Load() == version && !a.closed {
		a.ponderKey = key
		a.ponderMove = bestMove
		a.ponderReady.Store(true)
	}
	a.ponderMu.Unlock()
}

func (a *AIPlayer) updatePonderState(state GameState, rules Rules) {
	cfg := a.configStore.GetConfig()
	if !cfg.AiPonderingEnabled {
		return
	}
	a.ponderMu.Lock()
	a.ponderState = state.Clone()
	a.ponderRules = rules
	a.ponderVersion.Add(1)
	a.ponderReady.Store(false)
	a.ponderCond.Signal()
	a.ponderMu.Unlock()
}

// TakePonderedMove hands over the pondered result only when it was
// computed for exactly the live position and is still legal there.
func (a *AIPlayer) TakePonderedMove(state GameState, rules Rules) (Move, bool) {
	if !a.ponderReady.Load() {
		return InvalidMove(), false
	}
	key := stateKeyOf(state)
	a.ponderMu.Lock()
	defer a.ponderMu.Unlock()
	if !a.ponderReady.Load() || a.ponderKey != key {
		return InvalidMove(), false
	}
	move := a.ponderMove
	if ok, _ := rules.IsLegalDefault(state, move); ok {
		a.ponderReady.Store(false)
		return move, true
	}
	return InvalidMove(), false
}

func (a *AIPlayer) searchSettings(cfg Config, state GameState, stats *SearchStats) SearchSettings {
	return SearchSettings{
		Depth:               cfg.AiDepth,
		TimeoutMs:           cfg.AiTimeoutMs,
		BoardSize:           state.Board.Size(),
		Player:              state.ToMove,
		WinScore:            cfg.AiWinScore,
		TopCandidates:       cfg.AiTopCandidates,
		TtMaxEntries:        cfg.AiTtMaxEntries,
		QuickWinExit:        cfg.AiQuickWinExit,
		ReturnLastCompleted: cfg.AiReturnLastCompleted,
		LogDepthScores:      cfg.LogDepthScores,
		Weights:             a.effectiveWeights(cfg),
		Cache:               a.cache,
		Stats:               stats,
	}
}

// ensureWeights drops every cache when the effective weights changed:
// cached scores are only meaningful for the table that produced them.
// Callers hold cacheMu.
func (a *AIPlayer) ensureWeights(cfg Config) {
	fp := a.effectiveWeights(cfg).Fingerprint()
	if fp == a.fingerprint {
		return
	}
	if a.fingerprint != 0 {
		a.cache.Clear()
		log.Debug().Msg("heuristic weights changed, search caches dropped")
	}
	a.fingerprint = fp
}

func (a *AIPlayer) effectiveWeights(cfg Config) HeuristicConfig {
	a.weightsMu.Lock()
	defer a.weightsMu.Unlock()
	if a.weightsOverride != nil {
		return a.weightsOverride.Resolved()
	}
	return cfg.Heuristics.Resolved()
}

func (a *AIPlayer) ghostPublisher(cfg Config, sink func(GameState)) func(GameState) {
	throttle := time.Duration(cfg.AiGhostThrottleMs) * time.Millisecond
	var lastPublish time.Time
	return func(gs GameState) {
		if throttle > 0 {
			now := time.Now()
			if !lastPublish.IsZero() && now.Sub(lastPublish) < throttle {
				return
			}
			lastPublish = now
		}
		a.ghostMu.Lock()
		a.ghostBoard = gs.Board.Clone()
		a.ghostMu.Unlock()
		a.ghostActive.Store(true)
		sink(gs)
	}
}

func (a *AIPlayer) recordStats(stats SearchStats, snapshot CacheSnapshot) {
	a.statsMu.Lock()
	a.lastStats = stats
	a.lastSnapshot = snapshot
	a.statsMu.Unlock()
}

// bestMoveFromScores picks the highest-scoring cell that is still legal
// in the live position. Grids are always from the mover's perspective,
// so the best cell is the maximum for either color. Ties keep the first
// cell in row scan order.
func bestMoveFromScores(scores []float64, state GameState, rules Rules, size int) (Move, bool) {
	best := math.Inf(-1)
	bestMove := InvalidMove()
	found := false
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			score := scores[y*size+x]
			if score == illegalScore || score <= best {
				continue
			}
			move := Move{X: x, Y: y}
			if ok, _ := rules.IsLegalDefault(state, move); !ok {
				continue
			}
			best = score
			bestMove = move
			found = true
		}
	}
	return bestMove, found
}

func logSearchStats(tag string, stats *SearchStats) {
	log.Info().
		Str("search", tag).
		Int64("nodes", stats.Nodes).
		Int64("ttHits", stats.TTHits).
		Int64("ttStores", stats.TTStores).
		Int64("moveCacheHits", stats.MoveCacheHits).
		Int64("cutoffs", stats.Cutoffs).
		Int64("quickWinExits", stats.QuickWinExits).
		Int("depthReached", stats.DepthReached).
		Dur("elapsed", stats.Elapsed).
		Msg("search finished")
}
