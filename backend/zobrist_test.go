package main

import "testing"

func TestHashIncludesSideToMove(t *testing.T) {
	b := NewStartingBoard(8)
	if HashPosition(b, PlayerDark) == HashPosition(b, PlayerLight) {
		t.Fatalf("expected hash to differ for different side to move")
	}
	if HashBoard(b) != HashPosition(b, PlayerDark) {
		t.Fatalf("dark to move must hash like the bare board")
	}
}

func TestApplyMoveUpdatesHashIncrementally(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 8
	settings.DarkType = PlayerHuman
	settings.LightType = PlayerHuman
	game := NewGame(settings)
	game.Start()
	for i := 0; i < 10; i++ {
		state := game.State()
		if state.Status != StatusRunning {
			break
		}
		move := LegalMoves(state.Board, state.ToMove)[0]
		if ok, reason := game.TryApplyMove(move); !ok {
			t.Fatalf("move %v rejected: %s", move, reason)
		}
		state = game.State()
		if state.Hash != ComputeHash(state) {
			t.Fatalf("hash mismatch after %d moves: got %d want %d", i+1, state.Hash, ComputeHash(state))
		}
	}
}

func TestZobristTablesAreCachedPerSize(t *testing.T) {
	if GetZobrist(8) != GetZobrist(8) {
		t.Fatalf("expected the same table for the same size")
	}
	if HashBoard(NewStartingBoard(6)) == HashBoard(NewStartingBoard(8)) {
		t.Fatalf("expected different sizes to hash differently")
	}
}
