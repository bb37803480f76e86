package main

import (
	"encoding/json"
	"testing"
)

func TestStartingBoardLayout(t *testing.T) {
	b := NewStartingBoard(8)
	if b.At(3, 3) != CellLight || b.At(4, 4) != CellLight {
		t.Fatalf("expected light discs on the main diagonal:\n%s", b)
	}
	if b.At(4, 3) != CellDark || b.At(3, 4) != CellDark {
		t.Fatalf("expected dark discs on the anti-diagonal:\n%s", b)
	}
	dark, light := b.DiscCounts()
	if dark != 2 || light != 2 {
		t.Fatalf("expected 2/2 discs, got %d/%d", dark, light)
	}
}

func TestLegalMovesColumnMajorOrder(t *testing.T) {
	moves := LegalMoves(NewStartingBoard(8), PlayerDark)
	want := []Move{{X: 2, Y: 3}, {X: 3, Y: 2}, {X: 4, Y: 5}, {X: 5, Y: 4}}
	if len(moves) != len(want) {
		t.Fatalf("expected %d opening moves, got %v", len(want), moves)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Fatalf("move %d: got %v want %v (all: %v)", i, moves[i], want[i], moves)
		}
	}
}

func TestApplyMoveFlipsAndLeavesInputUntouched(t *testing.T) {
	start := NewStartingBoard(8)
	next := ApplyMove(start, PlayerDark, Move{X: 2, Y: 3})
	if next.At(2, 3) != CellDark || next.At(3, 3) != CellDark {
		t.Fatalf("expected placement and flip:\n%s", next)
	}
	dark, light := next.DiscCounts()
	if dark != 4 || light != 1 {
		t.Fatalf("expected 4/1 discs after the first move, got %d/%d", dark, light)
	}
	if start.At(3, 3) != CellLight || start.At(2, 3) != CellEmpty {
		t.Fatalf("ApplyMove mutated its input:\n%s", start)
	}
	if start == next {
		t.Fatalf("expected successor to differ from its parent")
	}
}

func TestApplyMoveFlipsEveryBracketedLine(t *testing.T) {
	b := mustBoard(t, [][]int{
		{1, 1, 1, 1},
		{1, 2, 2, 0},
		{1, 2, 2, 2},
		{1, 1, 1, 1},
	})
	move := Move{X: 3, Y: 1}
	flips := Flips(b, PlayerDark, move)
	if len(flips) != 4 {
		t.Fatalf("expected 4 flips, got %v", flips)
	}
	next := ApplyMove(b, PlayerDark, move)
	dark, light := next.DiscCounts()
	if dark != 15 || light != 1 {
		t.Fatalf("expected 15/1 discs, got %d/%d:\n%s", dark, light, next)
	}
	if !IsGameOver(next) {
		t.Fatalf("expected full board to be over")
	}
}

func TestNoLegalMovesMeansPass(t *testing.T) {
	b := NewBoard(4)
	b.Set(0, 0, CellLight)
	b.Set(1, 0, CellDark)
	if HasLegalMove(b, PlayerDark) {
		t.Fatalf("dark should have no move on:\n%s", b)
	}
	moves := LegalMoves(b, PlayerLight)
	if len(moves) != 1 || moves[0] != (Move{X: 2, Y: 0}) {
		t.Fatalf("expected light's only move at (2,0), got %v", moves)
	}
	if IsGameOver(b) {
		t.Fatalf("game is not over while light can move")
	}
}

func TestBoardFromRowsRejectsMalformedInput(t *testing.T) {
	cases := map[string][][]int{
		"too small":    {{0, 0}, {0, 0}},
		"ragged":       {{0, 0, 0, 0}, {0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		"unknown code": {{0, 0, 0, 0}, {0, 3, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
	}
	for name, rows := range cases {
		if _, err := BoardFromRows(rows); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestRowsRoundTripKeepsRowMajorLayout(t *testing.T) {
	b := NewStartingBoard(6)
	b = ApplyMove(b, PlayerDark, LegalMoves(b, PlayerDark)[0])
	rows := b.Rows()
	if rows[2][1] != cellToInt(b.At(1, 2)) {
		t.Fatalf("rows must be indexed [row][column]")
	}
	back, err := BoardFromRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != b {
		t.Fatalf("round trip changed the board:\n%s\nvs\n%s", back, b)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal rows: %v", err)
	}
	parsed, err := ParseBoardLine(string(data))
	if err != nil || parsed != b {
		t.Fatalf("board line round trip failed: %v", err)
	}
}

func TestBoardsAsMapKeys(t *testing.T) {
	seen := map[Board]int{}
	a := ApplyMove(ApplyMove(NewStartingBoard(8), PlayerDark, Move{X: 2, Y: 3}), PlayerLight, Move{X: 2, Y: 2})
	b := ApplyMove(ApplyMove(NewStartingBoard(8), PlayerDark, Move{X: 2, Y: 3}), PlayerLight, Move{X: 2, Y: 2})
	seen[a]++
	seen[b]++
	if len(seen) != 1 || seen[a] != 2 {
		t.Fatalf("equal boards must share a key, got %d keys", len(seen))
	}
	if NewStartingBoard(4) == NewStartingBoard(6) {
		t.Fatalf("boards of different sizes must differ")
	}
}

func mustBoard(t *testing.T, rows [][]int) Board {
	t.Helper()
	b, err := BoardFromRows(rows)
	if err != nil {
		t.Fatalf("bad test board: %v", err)
	}
	return b
}
