package main

import (
	"strings"

	"github.com/pkg/errors"
)

type Cell uint8

const (
	CellEmpty Cell = iota
	CellDark
	CellLight
)

const (
	MinBoardSize = 4
	MaxBoardSize = 16
)

// Board is a value type: copying it copies every cell, and two boards with the
// same size and discs compare equal, so it can key a map directly.
type Board struct {
	size  int
	cells [MaxBoardSize * MaxBoardSize]Cell
}

func NewBoard(boardSize int) Board {
	return Board{size: clampBoardSize(boardSize)}
}

// NewStartingBoard places the four center discs the way the game manager does:
// light on the main diagonal, dark on the anti-diagonal.
func NewStartingBoard(boardSize int) Board {
	b := NewBoard(boardSize)
	mid := b.size/2 - 1
	b.Set(mid, mid, CellLight)
	b.Set(mid+1, mid+1, CellLight)
	b.Set(mid+1, mid, CellDark)
	b.Set(mid, mid+1, CellDark)
	return b
}

// BoardFromRows builds a board from row-major cell codes (0 empty, 1 dark, 2 light).
func BoardFromRows(rows [][]int) (Board, error) {
	size := len(rows)
	if size < MinBoardSize || size > MaxBoardSize {
		return Board{}, errors.Errorf("board size %d out of range [%d,%d]", size, MinBoardSize, MaxBoardSize)
	}
	b := NewBoard(size)
	for y, row := range rows {
		if len(row) != size {
			return Board{}, errors.Errorf("row %d has %d cells, want %d", y, len(row), size)
		}
		for x, value := range row {
			cell, err := cellFromInt(value)
			if err != nil {
				return Board{}, errors.Wrapf(err, "cell (%d,%d)", x, y)
			}
			b.Set(x, y, cell)
		}
	}
	return b, nil
}

func (b Board) At(x, y int) Cell {
	return b.cells[b.index(x, y)]
}

func (b *Board) Set(x, y int, value Cell) {
	b.cells[b.index(x, y)] = value
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

func (b Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for i := 0; i < b.size*b.size; i++ {
		if b.cells[i] == CellEmpty {
			count++
		}
	}
	return count
}

// DiscCounts returns the number of dark and light discs.
func (b Board) DiscCounts() (dark, light int) {
	for i := 0; i < b.size*b.size; i++ {
		switch b.cells[i] {
		case CellDark:
			dark++
		case CellLight:
			light++
		}
	}
	return dark, light
}

func (b Board) Size() int {
	return b.size
}

// Rows returns the board as row-major cell codes, the shape used on the wire.
func (b Board) Rows() [][]int {
	rows := make([][]int, b.size)
	for y := 0; y < b.size; y++ {
		rows[y] = make([]int, b.size)
		for x := 0; x < b.size; x++ {
			rows[y][x] = cellToInt(b.At(x, y))
		}
	}
	return rows
}

func (b Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			switch b.At(x, y) {
			case CellDark:
				sb.WriteByte('X')
			case CellLight:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		if y < b.size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (b Board) index(x, y int) int {
	return y*b.size + x
}

func clampBoardSize(size int) int {
	if size < MinBoardSize {
		return MinBoardSize
	}
	if size > MaxBoardSize {
		return MaxBoardSize
	}
	return size
}

func (c Cell) String() string {
	switch c {
	case CellDark:
		return "Dark"
	case CellLight:
		return "Light"
	default:
		return "Empty"
	}
}

func CellFromPlayer(player PlayerColor) Cell {
	if player == PlayerDark {
		return CellDark
	}
	return CellLight
}

func cellToInt(cell Cell) int {
	return int(cell)
}

func cellFromInt(value int) (Cell, error) {
	switch value {
	case 0:
		return CellEmpty, nil
	case 1:
		return CellDark, nil
	case 2:
		return CellLight, nil
	default:
		return CellEmpty, errors.Errorf("unknown cell code %d", value)
	}
}
