package main

import "sync"

// Config holds every runtime tunable exposed over the settings API.
// The frontend round-trips the whole struct, so each field carries a
// JSON tag.
type Config struct {
	GhostMode      bool `json:"ghostMode"`
	LogDepthScores bool `json:"logDepthScores"`

	AiDepth               int     `json:"aiDepth"`
	AiTimeoutMs           int     `json:"aiTimeoutMs"`
	AiTopCandidates       int     `json:"aiTopCandidates"`
	AiQuickWinExit        bool    `json:"aiQuickWinExit"`
	AiWinScore            float64 `json:"aiWinScore"`
	AiTtMaxEntries        int     `json:"aiTtMaxEntries"`
	AiReturnLastCompleted bool    `json:"aiReturnLastCompleted"`

	AiMoveDelayMs      int  `json:"aiMoveDelayMs"`
	AiPonderingEnabled bool `json:"aiPonderingEnabled"`
	AiGhostThrottleMs  int  `json:"aiGhostThrottleMs"`
	AiLogSearchStats   bool `json:"aiLogSearchStats"`

	Heuristics HeuristicConfig `json:"heuristics"`
}

func DefaultConfig() Config {
	return Config{
		GhostMode:             true,
		LogDepthScores:        false,
		AiDepth:               5,
		AiTimeoutMs:           0,
		AiTopCandidates:       6,
		AiQuickWinExit:        true,
		AiWinScore:            10000,
		AiTtMaxEntries:        200000,
		AiReturnLastCompleted: true,
		AiMoveDelayMs:         0,
		AiPonderingEnabled:    true,
		AiGhostThrottleMs:     50,
		AiLogSearchStats:      false,
		Heuristics:            DefaultHeuristics(),
	}
}

// Normalized clamps fields a client could set to nonsense. Zero stays
// meaningful where zero means "off" (timeout, move delay).
func (c Config) Normalized() Config {
	if c.AiDepth < 1 {
		c.AiDepth = 1
	}
	if c.AiTopCandidates < 1 {
		c.AiTopCandidates = 1
	}
	if c.AiWinScore <= 0 {
		c.AiWinScore = 10000
	}
	if c.AiTtMaxEntries < 1000 {
		c.AiTtMaxEntries = 1000
	}
	if c.AiTimeoutMs < 0 {
		c.AiTimeoutMs = 0
	}
	if c.AiMoveDelayMs < 0 {
		c.AiMoveDelayMs = 0
	}
	if c.AiGhostThrottleMs < 0 {
		c.AiGhostThrottleMs = 0
	}
	c.Heuristics = c.Heuristics.Resolved()
	return c
}

// ConfigStore is the shared, mutex-guarded config handle. Readers get a
// copy, so a held Config never changes under a caller.
type ConfigStore struct {
	mu  sync.RWMutex
	cfg Config
}

func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{cfg: cfg.Normalized()}
}

func (s *ConfigStore) GetConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ConfigStore) SetConfig(cfg Config) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Normalized()
	return s.cfg
}

// Update applies fn under the lock and returns the normalized result.
func (s *ConfigStore) Update(fn func(*Config)) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	s.cfg = s.cfg.Normalized()
	return s.cfg
}
