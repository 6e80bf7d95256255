package main

import "testing"

func TestConfigNormalizedClamps(t *testing.T) {
	cfg := Config{
		AiDepth:           -3,
		AiTopCandidates:   0,
		AiWinScore:        -1,
		AiTtMaxEntries:    10,
		AiTimeoutMs:       -50,
		AiMoveDelayMs:     -1,
		AiGhostThrottleMs: -1,
	}.Normalized()

	if cfg.AiDepth != 1 {
		t.Fatalf("depth clamp wrong: %d", cfg.AiDepth)
	}
	if cfg.AiTopCandidates != 1 {
		t.Fatalf("top-candidates clamp wrong: %d", cfg.AiTopCandidates)
	}
	if cfg.AiWinScore != 10000 {
		t.Fatalf("win-score clamp wrong: %v", cfg.AiWinScore)
	}
	if cfg.AiTtMaxEntries != 1000 {
		t.Fatalf("tt-capacity clamp wrong: %d", cfg.AiTtMaxEntries)
	}
	if cfg.AiTimeoutMs != 0 || cfg.AiMoveDelayMs != 0 || cfg.AiGhostThrottleMs != 0 {
		t.Fatalf("negative intervals must clamp to off")
	}
	if cfg.Heuristics != DefaultHeuristics() {
		t.Fatalf("zero weights must resolve to the defaults")
	}
}

func TestConfigStoreReturnsCopies(t *testing.T) {
	store := NewConfigStore(DefaultConfig())
	cfg := store.GetConfig()
	cfg.AiDepth = 99
	if store.GetConfig().AiDepth == 99 {
		t.Fatalf("mutating a returned config must not touch the store")
	}

	updated := store.Update(func(c *Config) { c.AiDepth = 7 })
	if updated.AiDepth != 7 || store.GetConfig().AiDepth != 7 {
		t.Fatalf("update not applied")
	}

	// SetConfig normalizes on the way in.
	bad := DefaultConfig()
	bad.AiDepth = 0
	if got := store.SetConfig(bad); got.AiDepth != 1 {
		t.Fatalf("SetConfig must normalize, got depth %d", got.AiDepth)
	}
}

func TestHeuristicsFingerprint(t *testing.T) {
	// Zero weights resolve to the defaults, so both fingerprints match.
	var zero HeuristicConfig
	if zero.Fingerprint() != DefaultHeuristics().Fingerprint() {
		t.Fatalf("zero config must fingerprint like the defaults")
	}

	changed := DefaultHeuristics()
	changed.CapturePair = 25
	if changed.Fingerprint() == DefaultHeuristics().Fingerprint() {
		t.Fatalf("a weight change must change the fingerprint")
	}
}

func TestGameSettingsNormalized(t *testing.T) {
	s := GameSettings{BoardSize: 3, WinLength: 2, CaptureWinStones: 1}.Normalized()
	if s.BoardSize != 19 || s.WinLength != 5 || s.CaptureWinStones != 10 {
		t.Fatalf("undersized settings must fall back to defaults: %+v", s)
	}

	s = GameSettings{BoardSize: 30, WinLength: 40, CaptureWinStones: 4}.Normalized()
	if s.BoardSize != 25 {
		t.Fatalf("oversized board must clamp to 25, got %d", s.BoardSize)
	}
	if s.WinLength != 25 {
		t.Fatalf("win length must clamp to the board size, got %d", s.WinLength)
	}
	if s.CaptureWinStones != 4 {
		t.Fatalf("valid capture threshold must pass through, got %d", s.CaptureWinStones)
	}
}
