package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// arena drives AI-vs-AI matches against a running backend over its
// HTTP API and aggregates the outcomes. It plays and measures, it
// never touches the evaluation weights.
type arena struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	gameTimeout  time.Duration
	boardSize    int
	openingPlies int
	log          zerolog.Logger
}

type statusResponse struct {
	Status    string            `json:"status"`
	Winner    int               `json:"winner"`
	WinReason string            `json:"win_reason"`
	BoardSize int               `json:"board_size"`
	History   []json.RawMessage `json:"history"`
}

type createGameResponse struct {
	ID string `json:"id"`
}

type gameResult struct {
	Winner  int
	Reason  string
	Moves   int
	Elapsed time.Duration
	Err     error
}

type httpStatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s %s -> %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func main() {
	backend := flag.String("backend", "http://localhost:8080", "backend base URL")
	games := flag.Int("games", 10, "number of games to play")
	concurrency := flag.Int("concurrency", 2, "games running at once")
	boardSize := flag.Int("board-size", 0, "board size override, 0 keeps the backend default")
	depth := flag.Int("depth", 0, "search depth override, 0 keeps the backend config")
	timeoutMs := flag.Int("timeout-ms", -1, "search time budget override in ms, -1 keeps the backend config")
	openingPlies := flag.Int("opening-plies", 4, "random seeded plies before the AIs take over")
	pollMs := flag.Int("poll-ms", 250, "status poll interval in ms")
	gameTimeout := flag.Duration("game-timeout", 10*time.Minute, "abort a single game after this long")
	logLevel := flag.String("log-level", "info", "zerolog level")
	pretty := flag.Bool("pretty", false, "human readable console log")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	plies := *openingPlies
	if plies < 0 {
		plies = 0
	}
	// Capped so a seeded opening can never finish a game by itself.
	if plies > 8 {
		plies = 8
	}

	a := &arena{
		client:       &http.Client{Timeout: 10 * time.Second},
		baseURL:      *backend,
		pollInterval: time.Duration(*pollMs) * time.Millisecond,
		gameTimeout:  *gameTimeout,
		boardSize:    *boardSize,
		openingPlies: plies,
		log:          log.Logger,
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if err := a.waitBackendReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("backend not reachable")
	}
	if err := a.applyConfigOverrides(ctx, *depth, *timeoutMs); err != nil {
		log.Fatal().Err(err).Msg("config override failed")
	}

	log.Info().
		Str("backend", a.baseURL).
		Int("games", *games).
		Int("concurrency", *concurrency).
		Int("openingPlies", a.openingPlies).
		Msg("arena starting")

	results := make([]gameResult, *games)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*concurrency, 1))
	for i := range results {
		i := i
		g.Go(func() error {
			results[i] = a.playGame(gctx, i)
			return nil
		})
	}
	_ = g.Wait()

	reportSummary(a.log, results, time.Since(start))
	if ctx.Err() != nil {
		os.Exit(1)
	}
}

func (a *arena) playGame(ctx context.Context, index int) gameResult {
	if ctx.Err() != nil {
		return gameResult{Err: ctx.Err()}
	}
	gameStart := time.Now()
	rng := frand.New()

	id, size, err := a.createGame(ctx)
	if err != nil {
		return gameResult{Err: err}
	}
	defer a.deleteGame(id)

	if err := a.sendJSON(ctx, http.MethodPost, "/api/games/"+id+"/start", map[string]any{}, nil); err != nil {
		return gameResult{Err: err}
	}
	if err := a.seedOpening(ctx, id, rng, size); err != nil {
		return gameResult{Err: err}
	}
	if err := a.sendJSON(ctx, http.MethodPut, "/api/games/"+id+"/settings", map[string]any{
		"settings": map[string]any{"mode": "ai_vs_ai"},
		"reset":    false,
	}, nil); err != nil {
		return gameResult{Err: err}
	}

	status, err := a.waitForOutcome(ctx, id)
	result := gameResult{
		Winner:  status.Winner,
		Reason:  status.WinReason,
		Moves:   len(status.History),
		Elapsed: time.Since(gameStart),
		Err:     err,
	}
	event := a.log.Info()
	if err != nil {
		event = a.log.Error().Err(err)
	}
	event.
		Int("game", index).
		Str("id", id).
		Int("winner", result.Winner).
		Str("reason", result.Reason).
		Int("moves", result.Moves).
		Dur("elapsed", result.Elapsed).
		Msg("game finished")
	return result
}

func (a *arena) createGame(ctx context.Context) (string, int, error) {
	settings := map[string]any{"mode": "human_vs_human"}
	if a.boardSize > 0 {
		settings["board_size"] = a.boardSize
	}
	var created createGameResponse
	err := a.sendJSON(ctx, http.MethodPost, "/api/games", map[string]any{"settings": settings}, &created)
	if err != nil {
		return "", 0, err
	}
	status, err := a.fetchStatus(ctx, created.ID)
	if err != nil {
		return "", 0, err
	}
	return created.ID, status.BoardSize, nil
}

func (a *arena) deleteGame(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.sendJSON(ctx, http.MethodDelete, "/api/games/"+id, nil, nil); err != nil {
		a.log.Warn().Err(err).Str("id", id).Msg("session cleanup failed")
	}
}

// seedOpening plays random plies near the center through the move
// endpoint while both seats are still human. Cells the rules reject
// are skipped and another is drawn.
func (a *arena) seedOpening(ctx context.Context, id string, rng *frand.RNG, boardSize int) error {
	center := boardSize / 2
	offsets := [][2]int{
		{0, 0}, {1, 0}, {0, 1}, {-1, 0}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1},
		{2, 0}, {0, 2}, {-2, 0}, {0, -2}, {2, 1}, {1, 2}, {-2, -1}, {-1, -2},
	}
	tried := map[[2]int]bool{}
	applied := 0
	for attempts := 0; applied < a.openingPlies && attempts < len(offsets)*4; attempts++ {
		off := offsets[rng.Intn(len(offsets))]
		x, y := center+off[0], center+off[1]
		if x < 0 || y < 0 || x >= boardSize || y >= boardSize {
			continue
		}
		key := [2]int{x, y}
		if tried[key] {
			continue
		}
		err := a.sendJSON(ctx, http.MethodPost, "/api/games/"+id+"/move", map[string]any{"x": x, "y": y}, nil)
		if err != nil {
			var statusErr *httpStatusError
			if errors.As(err, &statusErr) && statusErr.Status == http.StatusConflict {
				tried[key] = true
				continue
			}
			return err
		}
		tried[key] = true
		applied++
	}
	return nil
}

func (a *arena) waitForOutcome(ctx context.Context, id string) (statusResponse, error) {
	deadline := time.Now().Add(a.gameTimeout)
	for {
		if ctx.Err() != nil {
			return statusResponse{}, ctx.Err()
		}
		status, err := a.fetchStatus(ctx, id)
		if err != nil {
			return statusResponse{}, err
		}
		if status.Status != "running" {
			return status, nil
		}
		if a.gameTimeout > 0 && time.Now().After(deadline) {
			_ = a.sendJSON(ctx, http.MethodPost, "/api/games/"+id+"/stop", map[string]any{}, nil)
			return statusResponse{}, fmt.Errorf("game %s still running after %s", id, a.gameTimeout)
		}
		if !sleepWithContext(ctx, a.pollInterval) {
			return statusResponse{}, ctx.Err()
		}
	}
}

func (a *arena) fetchStatus(ctx context.Context, id string) (statusResponse, error) {
	var status statusResponse
	if err := a.getJSON(ctx, "/api/games/"+id+"/status", &status); err != nil {
		return statusResponse{}, err
	}
	return status, nil
}

func (a *arena) waitBackendReady(ctx context.Context) error {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := a.getJSON(ctx, "/api/ping", &map[string]bool{}); err == nil {
			return nil
		}
		if !sleepWithContext(ctx, time.Second) {
			return ctx.Err()
		}
	}
	return errors.New("backend not ready after 60s")
}

// applyConfigOverrides patches the fields named on the command line
// into the backend's shared config, leaving the rest untouched.
func (a *arena) applyConfigOverrides(ctx context.Context, depth, timeoutMs int) error {
	if depth <= 0 && timeoutMs < 0 {
		return nil
	}
	patch := map[string]any{}
	if depth > 0 {
		patch["aiDepth"] = depth
	}
	if timeoutMs >= 0 {
		patch["aiTimeoutMs"] = timeoutMs
	}
	return a.sendJSON(ctx, http.MethodPut, "/api/config", patch, nil)
}

func (a *arena) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &httpStatusError{Method: http.MethodGet, Path: path, Status: resp.StatusCode, Body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *arena) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &httpStatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// runSummary aggregates a batch of game results. Failed games count
// toward nothing but the failure tally.
type runSummary struct {
	Games      int
	Completed  int
	Failures   int
	BlackWins  int
	WhiteWins  int
	Draws      int
	ByReason   map[string]int
	AvgMoves   float64
	AvgSeconds float64
}

func summarize(results []gameResult) runSummary {
	s := runSummary{Games: len(results), ByReason: map[string]int{}}
	totalMoves := 0
	var totalGameTime time.Duration
	for _, result := range results {
		if result.Err != nil {
			s.Failures++
			continue
		}
		switch result.Winner {
		case 1:
			s.BlackWins++
		case 2:
			s.WhiteWins++
		default:
			s.Draws++
		}
		if result.Reason != "" {
			s.ByReason[result.Reason]++
		}
		totalMoves += result.Moves
		totalGameTime += result.Elapsed
	}
	s.Completed = s.Games - s.Failures
	if s.Completed > 0 {
		s.AvgMoves = float64(totalMoves) / float64(s.Completed)
		s.AvgSeconds = totalGameTime.Seconds() / float64(s.Completed)
	}
	return s
}

func reportSummary(logger zerolog.Logger, results []gameResult, elapsed time.Duration) {
	s := summarize(results)
	logger.Info().
		Int("games", s.Games).
		Int("completed", s.Completed).
		Int("failures", s.Failures).
		Int("blackWins", s.BlackWins).
		Int("whiteWins", s.WhiteWins).
		Int("draws", s.Draws).
		Int("alignmentWins", s.ByReason["alignment"]).
		Int("captureWins", s.ByReason["capture"]).
		Int("captureThreatWins", s.ByReason["capture-threat"]).
		Float64("avgMoves", s.AvgMoves).
		Float64("avgGameSeconds", s.AvgSeconds).
		Dur("elapsed", elapsed).
		Msg("arena finished")
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
