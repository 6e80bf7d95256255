package main

type PlayerColor int

const (
	PlayerBlack PlayerColor = iota
	PlayerWhite
)

func (p PlayerColor) String() string {
	if p == PlayerBlack {
		return "black"
	}
	return "white"
}

func otherPlayer(player PlayerColor) PlayerColor {
	if player == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

func CellFromPlayer(player PlayerColor) Cell {
	if player == PlayerBlack {
		return CellBlack
	}
	return CellWhite
}

func PlayerFromCell(cell Cell) (PlayerColor, bool) {
	switch cell {
	case CellBlack:
		return PlayerBlack, true
	case CellWhite:
		return PlayerWhite, true
	default:
		return PlayerBlack, false
	}
}

// IPlayer is the mover seat: a human feeding pending moves or an AI
// driving a search. The game loop dispatches on the concrete type.
type IPlayer interface {
	IsHuman() bool
	ChooseMove(state GameState, rules Rules) Move
}
