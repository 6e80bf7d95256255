package main

import "sync"

// Zobrist tables are built deterministically per board size from a
// splitmix64 stream, so hashes are reproducible across runs. The hash
// mixes stone placement, side to move and both capture counters. Cache
// keys still compare the full state tuple, the hash is never trusted
// alone.
type ZobristTable struct {
	size  int
	cells []uint64
	side  uint64
}

type zobristStore struct {
	mu     sync.Mutex
	tables map[int]*ZobristTable
}

var zobristTables = &zobristStore{tables: make(map[int]*ZobristTable)}

func GetZobrist(size int) *ZobristTable {
	zobristTables.mu.Lock()
	defer zobristTables.mu.Unlock()
	if table, ok := zobristTables.tables[size]; ok {
		return table
	}
	rng := splitmix64{state: 0x9e3779b97f4a7c15 ^ uint64(size)}
	table := &ZobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	table.side = rng.next()
	zobristTables.tables[size] = table
	return table
}

func (z *ZobristTable) stone(x, y int, player PlayerColor) uint64 {
	idx := (y*z.size + x) * 2
	if player == PlayerWhite {
		idx++
	}
	return z.cells[idx]
}

// ComputeHash builds the hash of a position from scratch. Used on reset
// and as the ground truth the incremental update is tested against.
func ComputeHash(state GameState) uint64 {
	z := GetZobrist(state.Board.Size())
	var hash uint64
	state.Board.ForEachStone(func(x, y int, cell Cell) {
		player, ok := PlayerFromCell(cell)
		if !ok {
			return
		}
		hash ^= z.stone(x, y, player)
	})
	if state.ToMove == PlayerWhite {
		hash ^= z.side
	}
	hash ^= captureHash(PlayerBlack, state.CapturedBlack)
	hash ^= captureHash(PlayerWhite, state.CapturedWhite)
	return hash
}

// UpdateHashAfterMove folds one applied move into state.Hash: the placed
// stone, removed captures, the side flip and any capture counter change.
// prev* are the values before the move was applied.
func UpdateHashAfterMove(state *GameState, move Move, player PlayerColor, captures []Move, prevToMove PlayerColor, prevCapturedBlack, prevCapturedWhite int) {
	z := GetZobrist(state.Board.Size())
	hash := state.Hash
	if prevToMove == PlayerWhite {
		hash ^= z.side
	}
	hash ^= z.stone(move.X, move.Y, player)
	opp := otherPlayer(player)
	for _, captured := range captures {
		hash ^= z.stone(captured.X, captured.Y, opp)
	}
	if prevCapturedBlack != state.CapturedBlack {
		hash ^= captureHash(PlayerBlack, prevCapturedBlack)
		hash ^= captureHash(PlayerBlack, state.CapturedBlack)
	}
	if prevCapturedWhite != state.CapturedWhite {
		hash ^= captureHash(PlayerWhite, prevCapturedWhite)
		hash ^= captureHash(PlayerWhite, state.CapturedWhite)
	}
	if state.ToMove == PlayerWhite {
		hash ^= z.side
	}
	state.Hash = hash
}

func captureHash(player PlayerColor, count int) uint64 {
	seed := uint64(count)<<1 | uint64(player&1)
	rng := splitmix64{state: seed + 0x9e3779b97f4a7c15}
	return rng.next()
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
