package main

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// HeuristicConfig weights the move heuristic. A zero weight means "use
// the default", so partial JSON overrides keep the rest of the table.
type HeuristicConfig struct {
	// LineExtend multiplies the length of each own run the move extends.
	LineExtend float64 `json:"lineExtend"`
	// WinReach is the flat bonus when the move completes a winning run.
	WinReach float64 `json:"winReach"`
	// BlockRun multiplies the length of each opponent run the move touches.
	BlockRun float64 `json:"blockRun"`
	// BlockedEnd is the extra bonus when that opponent run was already
	// closed on its far end.
	BlockedEnd float64 `json:"blockedEnd"`
	// CapturePair multiplies the number of pairs the move captures.
	CapturePair float64 `json:"capturePair"`
	// CaptureThreshold is the bonus when the captures reach the
	// capture-win stone count.
	CaptureThreshold float64 `json:"captureThreshold"`
	// EdgePenalty multiplies the closeness to the board edge.
	EdgePenalty float64 `json:"edgePenalty"`
}

func DefaultHeuristics() HeuristicConfig {
	return HeuristicConfig{
		LineExtend:       1,
		WinReach:         100,
		BlockRun:         1,
		BlockedEnd:       5,
		CapturePair:      10,
		CaptureThreshold: 100,
		EdgePenalty:      2,
	}
}

// Resolved replaces zero weights with their defaults.
func (h HeuristicConfig) Resolved() HeuristicConfig {
	def := DefaultHeuristics()
	if h.LineExtend == 0 {
		h.LineExtend = def.LineExtend
	}
	if h.WinReach == 0 {
		h.WinReach = def.WinReach
	}
	if h.BlockRun == 0 {
		h.BlockRun = def.BlockRun
	}
	if h.BlockedEnd == 0 {
		h.BlockedEnd = def.BlockedEnd
	}
	if h.CapturePair == 0 {
		h.CapturePair = def.CapturePair
	}
	if h.CaptureThreshold == 0 {
		h.CaptureThreshold = def.CaptureThreshold
	}
	if h.EdgePenalty == 0 {
		h.EdgePenalty = def.EdgePenalty
	}
	return h
}

// Fingerprint hashes the resolved weights in declaration order. Cached
// search results are only valid for the weights that produced them, so
// the AI compares fingerprints and drops its caches on a change.
func (h HeuristicConfig) Fingerprint() uint64 {
	r := h.Resolved()
	weights := [...]float64{
		r.LineExtend,
		r.WinReach,
		r.BlockRun,
		r.BlockedEnd,
		r.CapturePair,
		r.CaptureThreshold,
		r.EdgePenalty,
	}
	hasher := fnv.New64a()
	var buf [8]byte
	for _, w := range weights {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w))
		hasher.Write(buf[:])
	}
	return hasher.Sum64()
}
