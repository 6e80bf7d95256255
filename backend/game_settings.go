package main

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
)

// GameSettings is fixed for the lifetime of one game. Changing any of it
// goes through a reset.
type GameSettings struct {
	BoardSize              int              `json:"board_size"`
	WinLength              int              `json:"win_length"`
	CaptureWinStones       int              `json:"capture_win_stones"`
	ForbidDoubleThreeBlack bool             `json:"forbid_double_three_black"`
	ForbidDoubleThreeWhite bool             `json:"forbid_double_three_white"`
	BlackStarts            bool             `json:"black_starts"`
	BlackType              PlayerType       `json:"-"`
	WhiteType              PlayerType       `json:"-"`
	BlackHeuristics        *HeuristicConfig `json:"black_heuristics,omitempty"`
	WhiteHeuristics        *HeuristicConfig `json:"white_heuristics,omitempty"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		BoardSize:              19,
		WinLength:              5,
		CaptureWinStones:       10,
		ForbidDoubleThreeBlack: true,
		ForbidDoubleThreeWhite: false,
		BlackStarts:            true,
		BlackType:              PlayerHuman,
		WhiteType:              PlayerAI,
	}
}

// Normalized clamps client-supplied values into playable ranges.
func (s GameSettings) Normalized() GameSettings {
	if s.BoardSize < 5 {
		s.BoardSize = 19
	}
	if s.BoardSize > 25 {
		s.BoardSize = 25
	}
	if s.WinLength < 3 {
		s.WinLength = 5
	}
	if s.WinLength > s.BoardSize {
		s.WinLength = s.BoardSize
	}
	if s.CaptureWinStones < 2 {
		s.CaptureWinStones = 10
	}
	return s
}
