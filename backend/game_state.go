package main

type GameStatus int

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusBlackWon
	StatusWhiteWon
	StatusDraw
)

func (s GameStatus) Terminal() bool {
	return s == StatusBlackWon || s == StatusWhiteWon || s == StatusDraw
}

// GameState is the full authoritative position. CapturedBlack and
// CapturedWhite count stones taken BY that side and never decrease within
// a game. Hash is the incremental Zobrist hash of the position and is kept
// in sync by every apply path.
type GameState struct {
	Board              Board
	ToMove             PlayerColor
	Status             GameStatus
	HasLastMove        bool
	LastMove           Move
	CapturedBlack      int
	CapturedWhite      int
	Hash               uint64
	MustCapture        bool
	ForcedCaptureMoves []Move
	WinningLine        []Move
	WinningCapturePair []Move
	LastMessage        string
}

func DefaultGameState(settings GameSettings) GameState {
	state := GameState{}
	state.Reset(settings)
	return state
}

func (s *GameState) Reset(settings GameSettings) {
	s.Board = NewBoard(settings.BoardSize)
	if settings.BlackStarts {
		s.ToMove = PlayerBlack
	} else {
		s.ToMove = PlayerWhite
	}
	s.Status = StatusNotStarted
	s.HasLastMove = false
	s.LastMove = InvalidMove()
	s.CapturedBlack = 0
	s.CapturedWhite = 0
	s.MustCapture = false
	s.ForcedCaptureMoves = nil
	s.WinningLine = nil
	s.WinningCapturePair = nil
	s.LastMessage = ""
	s.Hash = ComputeHash(*s)
}

func (s GameState) Clone() GameState {
	clone := s
	clone.Board = s.Board.Clone()
	clone.ForcedCaptureMoves = append([]Move(nil), s.ForcedCaptureMoves...)
	clone.WinningLine = append([]Move(nil), s.WinningLine...)
	clone.WinningCapturePair = append([]Move(nil), s.WinningCapturePair...)
	return clone
}

func (s GameState) CapturedBy(player PlayerColor) int {
	if player == PlayerBlack {
		return s.CapturedBlack
	}
	return s.CapturedWhite
}
