package main

type GameStatus int

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusDarkWon
	StatusLightWon
	StatusDraw
)

type GameState struct {
	Board       Board
	ToMove      PlayerColor
	Status      GameStatus
	HasLastMove bool
	LastMove    Move
	// Passes counts consecutive turns skipped for lack of a legal move.
	Passes      int
	Hash        uint64
	LastMessage string
}

func DefaultGameState(settings GameSettings) GameState {
	state := GameState{}
	state.Reset(settings)
	return state
}

func (s *GameState) Reset(settings GameSettings) {
	s.Board = NewStartingBoard(settings.BoardSize)
	s.ToMove = PlayerDark
	s.Status = StatusNotStarted
	s.HasLastMove = false
	s.LastMove = NoMove
	s.Passes = 0
	s.LastMessage = ""
	s.recomputeHash()
}

// Clone is a plain copy: Board is a value type.
func (s GameState) Clone() GameState {
	return s
}

func (s GameState) IsOver() bool {
	return s.Status == StatusDarkWon || s.Status == StatusLightWon || s.Status == StatusDraw
}

func (s *GameState) recomputeHash() {
	s.Hash = ComputeHash(*s)
}

func (g GameStatus) String() string {
	switch g {
	case StatusNotStarted:
		return "not_started"
	case StatusRunning:
		return "running"
	case StatusDarkWon:
		return "dark_won"
	case StatusLightWon:
		return "light_won"
	default:
		return "draw"
	}
}
