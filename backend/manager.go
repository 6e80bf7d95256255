package main

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const tickInterval = 50 * time.Millisecond

var errGameNotFound = errors.New("game not found")

// GameSession is one live game: its controller, its three hubs and the
// tick goroutine driving them. Everything stops when cancel fires.
type GameSession struct {
	id           string
	controller   *GameController
	hub          *Hub
	ghostHub     *GhostHub
	analyticsHub *AnalyticsHub
	createdAt    time.Time
	// suggestEnabled gates the whole ghost overlay for this session,
	// on top of connected clients and the global GhostMode knob.
	suggestEnabled atomic.Bool
	cancel         context.CancelFunc
}

func (s *GameSession) ID() string { return s.id }

// Manager owns every live session, keyed by uuid.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*GameSession
	store    *ConfigStore
	baseCtx  context.Context
	log      zerolog.Logger
}

func NewManager(ctx context.Context, store *ConfigStore, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*GameSession),
		store:    store,
		baseCtx:  ctx,
		log:      logger,
	}
}

func (m *Manager) Create(settings GameSettings) *GameSession {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(m.baseCtx)
	sessionLog := m.log.With().Str("game", id).Logger()

	s := &GameSession{
		id:           id,
		controller:   NewGameController(settings, m.store, sessionLog),
		hub:          NewHub(),
		ghostHub:     NewGhostHub(),
		analyticsHub: NewAnalyticsHub(),
		createdAt:    time.Now(),
		cancel:       cancel,
	}
	s.suggestEnabled.Store(true)

	store := m.store
	s.controller.SetPublishers(
		func() bool {
			return s.suggestEnabled.Load() && s.ghostHub.HasClients() && store.GetConfig().GhostMode
		},
		s.ghostHub.Publish,
		s.analyticsHub.PublishDepth,
	)

	go s.hub.Run(ctx.Done())
	go s.ghostHub.Run(ctx.Done())
	go s.analyticsHub.Run(ctx.Done())
	go s.runTicks(ctx)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	sessionLog.Info().Msg("session created")
	return s
}

// runTicks drives the game loop and fans results out to the hubs.
func (s *GameSession) runTicks(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.controller.Tick() {
				s.publishMoveEvents()
			}
		}
	}
}

// publishMoveEvents pushes the applied move and refreshed telemetry to
// every connected socket.
func (s *GameSession) publishMoveEvents() {
	if entry, ok := s.controller.LatestHistoryEntry(); ok {
		s.hub.PublishHistory(historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
	}
	s.hub.PublishStatus(controllerStatus(s.controller))
	s.analyticsHub.PublishSeats(s.controller.SearchDiagnostics())
}

func (m *Manager) Get(id string) (*GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errGameNotFound
	}
	return s, nil
}

// List returns sessions oldest first.
func (m *Manager) List() []*GameSession {
	m.mu.RLock()
	sessions := make([]*GameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].createdAt.Before(sessions[j].createdAt)
	})
	return sessions
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return errGameNotFound
	}
	s.cancel()
	s.controller.Close()
	m.log.Info().Str("game", id).Msg("session deleted")
	return nil
}

// Shutdown stops every session's loops and abandons their searches.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*GameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	clear(m.sessions)
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
		s.controller.Close()
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
