package main

import "fmt"

// Move places a disc at column X, row Y.
type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoMove marks the absent move of cutoff nodes.
var NoMove = Move{X: -1, Y: -1}

func NewMove(x, y int) Move {
	return Move{X: x, Y: y}
}

func (m Move) IsValid(boardSize int) bool {
	return m.X >= 0 && m.Y >= 0 && m.X < boardSize && m.Y < boardSize
}

func (m Move) IsNone() bool {
	return m == NoMove
}

func (m Move) Equals(other Move) bool {
	return m.X == other.X && m.Y == other.Y
}

func (m Move) String() string {
	if m.IsNone() {
		return "none"
	}
	return fmt.Sprintf("(%d,%d)", m.X, m.Y)
}
