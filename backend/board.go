package main

import "strings"

type Cell int

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

// Board is a square grid of cells stored row-major. It is a value type:
// assignment shares the backing slice, use Clone for an independent copy.
type Board struct {
	size  int
	cells []Cell
}

func NewBoard(boardSize int) Board {
	b := Board{}
	b.Reset(boardSize)
	return b
}

func (b *Board) Reset(boardSize int) {
	b.size = boardSize
	b.cells = make([]Cell, boardSize*boardSize)
}

func (b Board) Size() int {
	return b.size
}

func (b Board) At(x, y int) Cell {
	return b.cells[b.idx(x, y)]
}

func (b *Board) Set(x, y int, value Cell) {
	b.cells[b.idx(x, y)] = value
}

func (b *Board) Remove(x, y int) {
	b.cells[b.idx(x, y)] = CellEmpty
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

func (b Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for _, cell := range b.cells {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (b Board) StoneCount() int {
	return len(b.cells) - b.CountEmpty()
}

// ForEachStone calls fn for every occupied cell in scan order.
func (b Board) ForEachStone(fn func(x, y int, cell Cell)) {
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			if cell := b.At(x, y); cell != CellEmpty {
				fn(x, y, cell)
			}
		}
	}
}

func (b Board) Clone() Board {
	clone := Board{size: b.size}
	clone.cells = make([]Cell, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

func (b Board) idx(x, y int) int {
	return y*b.size + x
}

func (b Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			switch b.At(x, y) {
			case CellBlack:
				sb.WriteByte('X')
			case CellWhite:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (c Cell) String() string {
	switch c {
	case CellBlack:
		return "Black"
	case CellWhite:
		return "White"
	default:
		return "Empty"
	}
}
