package main

// HistoryEntry records one applied move with everything the clients
// render: who played, what was captured, how long the turn took, and
// the search depth that produced an AI move.
type HistoryEntry struct {
	Move              Move
	Player            PlayerColor
	CapturedPositions []Move
	CapturedCount     int
	ElapsedMs         float64
	IsAi              bool
	Depth             int
}

type MoveHistory struct {
	entries []HistoryEntry
}

func (h *MoveHistory) Clear() {
	h.entries = nil
}

func (h *MoveHistory) Push(entry HistoryEntry) {
	h.entries = append(h.entries, entry)
}

func (h MoveHistory) Size() int {
	return len(h.entries)
}

func (h MoveHistory) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// All returns a copy; callers may not mutate stored entries.
func (h MoveHistory) All() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}
