package main

import "sync"

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
	rng := splitmix64{state: uint64(0x9e3779b97f4a7c15) ^ uint64(size)}
	table := &ZobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	table.side = rng.next()
	zobristTables.tables[size] = table
	return table
}

func (z *ZobristTable) disc(x, y int, cell Cell) uint64 {
	idx := (y*z.size + x) * 2
	if cell == CellLight {
		idx++
	}
	return z.cells[idx]
}

// HashBoard hashes disc placement only.
func HashBoard(board Board) uint64 {
	z := GetZobrist(board.Size())
	var hash uint64
	size := board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cell := board.At(x, y)
			if cell == CellEmpty {
				continue
			}
			hash ^= z.disc(x, y, cell)
		}
	}
	return hash
}

// HashPosition mixes the side to move into the board hash.
func HashPosition(board Board, toMove PlayerColor) uint64 {
	hash := HashBoard(board)
	if toMove == PlayerLight {
		hash ^= GetZobrist(board.Size()).side
	}
	return hash
}

func ComputeHash(state GameState) uint64 {
	return HashPosition(state.Board, state.ToMove)
}

// UpdateHashAfterMove applies a placement and its flips to state.Hash
// incrementally. state.ToMove must already hold the next mover.
func UpdateHashAfterMove(state *GameState, move Move, player PlayerColor, flips []Move, prevToMove PlayerColor) {
	z := GetZobrist(state.Board.Size())
	hash := state.Hash
	if prevToMove == PlayerLight {
		hash ^= z.side
	}
	own := CellFromPlayer(player)
	opp := CellFromPlayer(otherPlayer(player))
	hash ^= z.disc(move.X, move.Y, own)
	for _, flipped := range flips {
		hash ^= z.disc(flipped.X, flipped.Y, opp)
		hash ^= z.disc(flipped.X, flipped.Y, own)
	}
	if state.ToMove == PlayerLight {
		hash ^= z.side
	}
	state.Hash = hash
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
