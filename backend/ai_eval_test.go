package main

import "testing"

func TestDiscEvaluatorDifferential(t *testing.T) {
	b := ApplyMove(NewStartingBoard(8), PlayerDark, Move{X: 2, Y: 3})
	var eval DiscEvaluator
	if got := eval.Evaluate(b, PlayerDark); got != 3 {
		t.Fatalf("expected +3 for dark, got %f", got)
	}
	if got := eval.Evaluate(b, PlayerLight); got != -3 {
		t.Fatalf("expected -3 for light, got %f", got)
	}
}

func TestEvaluatorsAreZeroSum(t *testing.T) {
	evaluators := map[string]Evaluator{
		"disc":       DiscEvaluator{},
		"positional": NewPositionalEvaluator(DefaultConfig().Heuristics),
	}
	boards := randomBoards(t, 6, 40, 7)
	boards = append(boards, randomBoards(t, 8, 30, 11)...)
	for name, eval := range evaluators {
		for _, b := range boards {
			dark := eval.Evaluate(b, PlayerDark)
			light := eval.Evaluate(b, PlayerLight)
			if dark != -light {
				t.Fatalf("%s: %f vs %f on\n%s", name, dark, light, b)
			}
		}
	}
}

func TestPositionalEvaluatorTerminalDominates(t *testing.T) {
	// Light owns every corner but dark wins the finished game on discs.
	rows := [][]int{
		{2, 1, 1, 2},
		{1, 1, 1, 1},
		{1, 1, 1, 1},
		{2, 1, 1, 2},
	}
	b := mustBoard(t, rows)
	eval := NewPositionalEvaluator(DefaultConfig().Heuristics)
	got := eval.Evaluate(b, PlayerDark)
	want := DefaultConfig().Heuristics.Terminal * 8
	if got != want {
		t.Fatalf("expected terminal score %f, got %f", want, got)
	}
}

func TestPositionalEvaluatorPrefersCorners(t *testing.T) {
	b := NewBoard(8)
	b.Set(0, 0, CellDark)
	b.Set(1, 1, CellLight)
	b.Set(2, 2, CellDark)
	b.Set(4, 4, CellLight)
	eval := NewPositionalEvaluator(DefaultConfig().Heuristics)
	if eval.Evaluate(b, PlayerDark) <= 0 {
		t.Fatalf("expected the corner owner to be ahead")
	}
}

func TestNewEvaluatorFromConfig(t *testing.T) {
	config := DefaultConfig()
	if _, ok := mustEvaluator(t, config).(DiscEvaluator); !ok {
		t.Fatalf("expected the disc evaluator by default")
	}
	config.AiEvaluator = EvaluatorPositional
	config.Heuristics = HeuristicConfig{Corner: 40}
	positional, ok := mustEvaluator(t, config).(PositionalEvaluator)
	if !ok {
		t.Fatalf("expected a positional evaluator")
	}
	if positional.weights.Corner != 40 || positional.weights.Edge != DefaultConfig().Heuristics.Edge {
		t.Fatalf("expected missing weights to fall back to defaults, got %+v", positional.weights)
	}
	config.AiEvaluator = "neural"
	if _, err := NewEvaluator(config); err == nil {
		t.Fatalf("expected an unknown evaluator to be rejected")
	}
}

func TestEvaluatorHashTracksWeights(t *testing.T) {
	config := DefaultConfig()
	config.AiEvaluator = EvaluatorPositional
	base := evaluatorHash(config)
	config.Heuristics.Corner++
	if evaluatorHash(config) == base {
		t.Fatalf("expected hash to change with weights")
	}
	config.AiEvaluator = EvaluatorDisc
	if evaluatorHash(config) == base {
		t.Fatalf("expected disc evaluator to hash apart from positional")
	}
}

func TestSquareClasses(t *testing.T) {
	table := squareTableForSize(8)
	checks := map[Move]squareClass{
		{X: 0, Y: 0}: squareCorner,
		{X: 7, Y: 7}: squareCorner,
		{X: 1, Y: 1}: squareX,
		{X: 6, Y: 1}: squareX,
		{X: 1, Y: 0}: squareC,
		{X: 7, Y: 6}: squareC,
		{X: 3, Y: 0}: squareEdge,
		{X: 3, Y: 3}: squareInner,
	}
	for move, want := range checks {
		if got := table[move.Y*8+move.X]; got != want {
			t.Fatalf("square %v: got class %d want %d", move, got, want)
		}
	}
}

func mustEvaluator(t *testing.T, config Config) Evaluator {
	t.Helper()
	eval, err := NewEvaluator(config)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return eval
}
