package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type StatusResponse struct {
	Settings           GameSettingsDTO   `json:"settings"`
	Config             Config            `json:"config"`
	Board              [][]int           `json:"board"`
	NextPlayer         int               `json:"next_player"`
	Winner             int               `json:"winner"`
	BoardSize          int               `json:"board_size"`
	Status             string            `json:"status"`
	AiThinking         bool              `json:"ai_thinking"`
	History            []historyEntryDTO `json:"history"`
	WinReason          string            `json:"win_reason"`
	WinningLine        []Move            `json:"winning_line"`
	WinningCapturePair []Move            `json:"winning_capture_pair"`
	CapturedBlack      int               `json:"captured_black"`
	CapturedWhite      int               `json:"captured_white"`
	CaptureWinStones   int               `json:"capture_win_stones"`
	MustCapture        bool              `json:"must_capture"`
	ForcedCaptureMoves []Move            `json:"forced_capture_moves,omitempty"`
	LastMove           *Move             `json:"last_move,omitempty"`
	LastMessage        string            `json:"last_message,omitempty"`
	TurnStartedAtMs    int64             `json:"turn_started_at_ms"`
}

// GameSettingsDTO goes both ways: pointer fields let PUT bodies patch
// only what they name, and responses fill every field.
type GameSettingsDTO struct {
	Mode                   string           `json:"mode"`
	HumanPlayer            int              `json:"human_player"`
	BoardSize              *int             `json:"board_size,omitempty"`
	WinLength              *int             `json:"win_length,omitempty"`
	CaptureWinStones       *int             `json:"capture_win_stones,omitempty"`
	ForbidDoubleThreeBlack *bool            `json:"forbid_double_three_black,omitempty"`
	ForbidDoubleThreeWhite *bool            `json:"forbid_double_three_white,omitempty"`
	BlackHeuristics        *HeuristicConfig `json:"black_heuristics,omitempty"`
	WhiteHeuristics        *HeuristicConfig `json:"white_heuristics,omitempty"`
}

type apiMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type historyEntryDTO struct {
	X                 int          `json:"x"`
	Y                 int          `json:"y"`
	Player            int          `json:"player"`
	ElapsedMs         float64      `json:"elapsed_ms"`
	IsAi              bool         `json:"is_ai"`
	CapturedCount     int          `json:"captured_count"`
	CapturedPositions []Move       `json:"captured_positions"`
	Changes           []cellChange `json:"changes"`
	Depth             int          `json:"depth"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	History            []historyEntryDTO `json:"history"`
	NextPlayer         int               `json:"next_player"`
	Winner             int               `json:"winner"`
	Status             string            `json:"status"`
	BoardSize          int               `json:"board_size"`
	WinReason          string            `json:"win_reason"`
	WinningLine        []Move            `json:"winning_line"`
	WinningCapturePair []Move            `json:"winning_capture_pair"`
	CaptureWinStones   int               `json:"capture_win_stones"`
	TurnStartedAtMs    int64             `json:"turn_started_at_ms"`
}

type cellChange struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Value int `json:"value"`
}

type settingsPayload struct {
	Settings GameSettingsDTO `json:"settings"`
	Config   Config          `json:"config"`
}

type gameSummary struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Mode        string `json:"mode"`
	BoardSize   int    `json:"board_size"`
	MoveCount   int    `json:"move_count"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

type createGameResponse struct {
	ID     string         `json:"id"`
	Status StatusResponse `json:"status"`
}

type cacheResponse struct {
	Seats []seatDiagnostics `json:"seats"`
}

type ttEntryDTO struct {
	Hash      string  `json:"hash"`
	Player    string  `json:"player"`
	Depth     int     `json:"depth"`
	DepthLeft int     `json:"depth_left"`
	Value     float64 `json:"value"`
	BestMove  *Move   `json:"best_move,omitempty"`
	Hits      uint32  `json:"hits"`
}

type seatTTEntriesDTO struct {
	Player  string       `json:"player"`
	Total   int          `json:"total"`
	Entries []ttEntryDTO `json:"entries"`
}

type cacheEntriesResponse struct {
	Seats []seatTTEntriesDTO `json:"seats"`
	Limit int                `json:"limit"`
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	logLevel := flag.String("log-level", "info", "zerolog level: trace, debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "human readable console log")
	flag.Parse()
	setupLogging(*logLevel, *pretty)

	configStore := NewConfigStore(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager := NewManager(ctx, configStore, log.Logger)

	r := newRouter(manager, configStore)
	server := &http.Server{Addr: *addr, Handler: r}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		log.Info().Str("addr", *addr).Msg("backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped with error")
	}

	cancel()
	manager.Shutdown()
	log.Info().Msg("backend stopped")
}

func setupLogging(levelStr string, pretty bool) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func newRouter(manager *Manager, configStore *ConfigStore) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/api/games", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettingsDTO `json:"settings"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings := DefaultGameSettings()
		if payload.Settings != nil {
			settings = settingsFromDTO(*payload.Settings, settings)
		}
		session := manager.Create(settings)
		writeJSON(w, http.StatusCreated, createGameResponse{
			ID:     session.id,
			Status: controllerStatus(session.controller),
		})
	})

	r.Get("/api/games", func(w http.ResponseWriter, r *http.Request) {
		sessions := manager.List()
		summaries := make([]gameSummary, 0, len(sessions))
		for _, s := range sessions {
			state := s.controller.State()
			settings := s.controller.Settings()
			summaries = append(summaries, gameSummary{
				ID:          s.id,
				Status:      statusToString(state.Status),
				Mode:        controllerSettingsDTO(settings).Mode,
				BoardSize:   state.Board.Size(),
				MoveCount:   s.controller.History().Size(),
				CreatedAtMs: s.createdAt.UnixMilli(),
			})
		}
		writeJSON(w, http.StatusOK, summaries)
	})

	r.Route("/api/games/{gameID}", func(r chi.Router) {
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			if err := manager.Delete(chi.URLParam(r, "gameID")); err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, controllerStatus(s.controller))
		})

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			var payload struct {
				Settings *GameSettingsDTO `json:"settings"`
			}
			if err := decodeBody(r, &payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			settings := s.controller.Settings()
			if payload.Settings != nil {
				settings = settingsFromDTO(*payload.Settings, settings)
			}
			s.controller.StartGame(settings)
			s.hub.PublishReset(resetFromController(s.controller))
			writeJSON(w, http.StatusOK, controllerStatus(s.controller))
		})

		r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			s.controller.Reset(s.controller.Settings())
			s.hub.PublishReset(resetFromController(s.controller))
			writeJSON(w, http.StatusOK, controllerStatus(s.controller))
		})

		r.Post("/move", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			var payload apiMove
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			applied, errMsg := s.controller.ApplyHumanMove(Move{X: payload.X, Y: payload.Y})
			if !applied {
				writeJSON(w, http.StatusConflict, map[string]string{"error": errMsg})
				return
			}
			s.publishMoveEvents()
			writeJSON(w, http.StatusOK, controllerStatus(s.controller))
		})

		r.Post("/suggest", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			var payload struct {
				Enabled bool `json:"enabled"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			s.suggestEnabled.Store(payload.Enabled)
			writeJSON(w, http.StatusOK, map[string]bool{"enabled": payload.Enabled})
		})

		r.Get("/settings", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, settingsPayload{
				Settings: controllerSettingsDTO(s.controller.Settings()),
				Config:   configStore.GetConfig(),
			})
		})

		r.Put("/settings", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			var payload struct {
				Settings *GameSettingsDTO `json:"settings"`
				Reset    bool             `json:"reset"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Settings == nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			settings := settingsFromDTO(*payload.Settings, s.controller.Settings())
			s.controller.UpdateSettings(settings, payload.Reset)
			s.hub.PublishSettings(settingsPayload{
				Settings: controllerSettingsDTO(s.controller.Settings()),
				Config:   configStore.GetConfig(),
			})
			writeJSON(w, http.StatusOK, controllerStatus(s.controller))
		})

		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, historyPayload{History: historyToDTO(s.controller.History())})
		})

		r.Get("/cache", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, cacheResponse{Seats: s.controller.SearchDiagnostics()})
		})

		r.Get("/cache/entries", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			if limit <= 0 {
				limit = 10
			}
			if limit > 100 {
				limit = 100
			}
			seats := s.controller.SeatTTEntries(limit)
			dto := make([]seatTTEntriesDTO, 0, len(seats))
			for _, seat := range seats {
				dto = append(dto, seatTTEntriesToDTO(seat))
			}
			writeJSON(w, http.StatusOK, cacheEntriesResponse{Seats: dto, Limit: limit})
		})

		r.Delete("/cache", func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessionFromRequest(manager, w, r)
			if !ok {
				return
			}
			s.controller.ClearSearchCaches()
			writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
		})
	})

	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, configStore.GetConfig())
	})

	r.Put("/api/config", func(w http.ResponseWriter, r *http.Request) {
		cfg := configStore.GetConfig()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		applied := configStore.SetConfig(cfg)
		for _, s := range manager.List() {
			s.controller.ResetForConfigChange()
			s.hub.PublishSettings(settingsPayload{
				Settings: controllerSettingsDTO(s.controller.Settings()),
				Config:   applied,
			})
		}
		writeJSON(w, http.StatusOK, applied)
	})

	r.Get("/ws/games/{gameID}", func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFromRequest(manager, w, r)
		if !ok {
			return
		}
		serveWS(s.hub, s.controller, w, r)
	})
	r.Get("/ws/games/{gameID}/ghost", func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFromRequest(manager, w, r)
		if !ok {
			return
		}
		serveGhostWS(s.ghostHub, w, r)
	})
	r.Get("/ws/games/{gameID}/analytics", func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFromRequest(manager, w, r)
		if !ok {
			return
		}
		serveAnalyticsWS(s.analyticsHub, s.controller, w, r)
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("reqId", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func sessionFromRequest(manager *Manager, w http.ResponseWriter, r *http.Request) (*GameSession, bool) {
	s, err := manager.Get(chi.URLParam(r, "gameID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return nil, false
	}
	return s, true
}

// decodeBody tolerates an empty body, so POSTs with all-default
// semantics need no payload.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrade(w, r)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})
		case "move":
			var payload apiMove
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			controller.SubmitHumanMove(payload.X, payload.Y)
		}
	}
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	gameSettings := controller.Settings()
	response := StatusResponse{
		Settings:           controllerSettingsDTO(gameSettings),
		Config:             controller.ConfigSnapshot(),
		Board:              boardToSlice(state.Board),
		NextPlayer:         playerToInt(state.ToMove),
		Winner:             winnerFromStatus(state.Status),
		BoardSize:          state.Board.Size(),
		Status:             statusToString(state.Status),
		AiThinking:         controller.AiThinking(),
		History:            historyToDTO(controller.History()),
		WinReason:          winReasonFromState(state),
		WinningLine:        append([]Move(nil), state.WinningLine...),
		WinningCapturePair: append([]Move(nil), state.WinningCapturePair...),
		CapturedBlack:      state.CapturedBlack,
		CapturedWhite:      state.CapturedWhite,
		CaptureWinStones:   gameSettings.CaptureWinStones,
		MustCapture:        state.MustCapture,
		ForcedCaptureMoves: append([]Move(nil), state.ForcedCaptureMoves...),
		LastMessage:        state.LastMessage,
		TurnStartedAtMs:    controller.CurrentTurnStartedAtMs(),
	}
	if state.HasLastMove {
		move := state.LastMove
		response.LastMove = &move
	}
	return response
}

func winReasonFromState(state GameState) string {
	if winnerFromStatus(state.Status) == 0 {
		return ""
	}
	if len(state.WinningLine) > 0 {
		return "alignment"
	}
	if len(state.WinningCapturePair) > 0 {
		return "capture-threat"
	}
	return "capture"
}

func settingsFromDTO(dto GameSettingsDTO, base GameSettings) GameSettings {
	settings := base
	switch dto.Mode {
	case "ai_vs_ai":
		settings.BlackType = PlayerAI
		settings.WhiteType = PlayerAI
	case "human_vs_human":
		settings.BlackType = PlayerHuman
		settings.WhiteType = PlayerHuman
	case "ai_vs_human":
		if dto.HumanPlayer == 2 {
			settings.BlackType = PlayerAI
			settings.WhiteType = PlayerHuman
		} else {
			settings.BlackType = PlayerHuman
			settings.WhiteType = PlayerAI
		}
	}
	if dto.BoardSize != nil {
		settings.BoardSize = *dto.BoardSize
	}
	if dto.WinLength != nil {
		settings.WinLength = *dto.WinLength
	}
	if dto.CaptureWinStones != nil {
		settings.CaptureWinStones = *dto.CaptureWinStones
	}
	if dto.ForbidDoubleThreeBlack != nil {
		settings.ForbidDoubleThreeBlack = *dto.ForbidDoubleThreeBlack
	}
	if dto.ForbidDoubleThreeWhite != nil {
		settings.ForbidDoubleThreeWhite = *dto.ForbidDoubleThreeWhite
	}
	if dto.BlackHeuristics != nil {
		weights := *dto.BlackHeuristics
		settings.BlackHeuristics = &weights
	}
	if dto.WhiteHeuristics != nil {
		weights := *dto.WhiteHeuristics
		settings.WhiteHeuristics = &weights
	}
	return settings.Normalized()
}

func controllerSettingsDTO(settings GameSettings) GameSettingsDTO {
	mode := "ai_vs_human"
	if settings.BlackType == PlayerAI && settings.WhiteType == PlayerAI {
		mode = "ai_vs_ai"
	} else if settings.BlackType == PlayerHuman && settings.WhiteType == PlayerHuman {
		mode = "human_vs_human"
	}
	humanPlayer := 0
	if settings.BlackType == PlayerHuman && settings.WhiteType != PlayerHuman {
		humanPlayer = 1
	} else if settings.WhiteType == PlayerHuman && settings.BlackType != PlayerHuman {
		humanPlayer = 2
	} else if settings.BlackType == PlayerHuman && settings.WhiteType == PlayerHuman {
		humanPlayer = 1
	}
	return GameSettingsDTO{
		Mode:                   mode,
		HumanPlayer:            humanPlayer,
		BoardSize:              &settings.BoardSize,
		WinLength:              &settings.WinLength,
		CaptureWinStones:       &settings.CaptureWinStones,
		ForbidDoubleThreeBlack: &settings.ForbidDoubleThreeBlack,
		ForbidDoubleThreeWhite: &settings.ForbidDoubleThreeWhite,
		BlackHeuristics:        settings.BlackHeuristics,
		WhiteHeuristics:        settings.WhiteHeuristics,
	}
}

func boardToSlice(board Board) [][]int {
	size := board.Size()
	rows := make([][]int, size)
	for y := 0; y < size; y++ {
		rows[y] = make([]int, size)
		for x := 0; x < size; x++ {
			rows[y][x] = cellToInt(board.At(x, y))
		}
	}
	return rows
}

func cellToInt(cell Cell) int {
	switch cell {
	case CellBlack:
		return 1
	case CellWhite:
		return 2
	default:
		return 0
	}
}

func playerToInt(player PlayerColor) int {
	if player == PlayerBlack {
		return 1
	}
	return 2
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusBlackWon:
		return 1
	case StatusWhiteWon:
		return 2
	default:
		return 0
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusNotStarted:
		return "not_started"
	case StatusBlackWon:
		return "black_won"
	case StatusWhiteWon:
		return "white_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		X:                 entry.Move.X,
		Y:                 entry.Move.Y,
		Player:            playerToInt(entry.Player),
		ElapsedMs:         entry.ElapsedMs,
		IsAi:              entry.IsAi,
		CapturedCount:     entry.CapturedCount,
		CapturedPositions: append([]Move(nil), entry.CapturedPositions...),
		Changes:           changesFromEntry(entry),
		Depth:             entry.Depth,
	}
}

func changesFromEntry(entry HistoryEntry) []cellChange {
	changes := []cellChange{{
		X:     entry.Move.X,
		Y:     entry.Move.Y,
		Value: playerToInt(entry.Player),
	}}
	for _, captured := range entry.CapturedPositions {
		changes = append(changes, cellChange{X: captured.X, Y: captured.Y, Value: 0})
	}
	return changes
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	settings := controller.Settings()
	return resetPayload{
		History:            historyToDTO(controller.History()),
		NextPlayer:         playerToInt(state.ToMove),
		Winner:             winnerFromStatus(state.Status),
		Status:             statusToString(state.Status),
		BoardSize:          state.Board.Size(),
		WinReason:          winReasonFromState(state),
		WinningLine:        append([]Move(nil), state.WinningLine...),
		WinningCapturePair: append([]Move(nil), state.WinningCapturePair...),
		CaptureWinStones:   settings.CaptureWinStones,
		TurnStartedAtMs:    controller.CurrentTurnStartedAtMs(),
	}
}

func seatTTEntriesToDTO(seat seatTTEntries) seatTTEntriesDTO {
	entries := make([]ttEntryDTO, 0, len(seat.Entries))
	for _, view := range seat.Entries {
		dto := ttEntryDTO{
			Hash:      fmt.Sprintf("0x%016x", view.Key.State.Hash),
			Player:    view.Key.State.Player.String(),
			Depth:     view.Key.Depth,
			DepthLeft: view.Entry.DepthLeft,
			Value:     view.Entry.Value,
			Hits:      view.Entry.Hits,
		}
		if view.Entry.HasBest {
			move := view.Entry.BestMove
			dto.BestMove = &move
		}
		entries = append(entries, dto)
	}
	return seatTTEntriesDTO{Player: seat.Player, Total: seat.Total, Entries: entries}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
