package main

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

// Evaluator scores a board relative to color. Implementations must be
// zero-sum: Evaluate(b, Dark) == -Evaluate(b, Light).
type Evaluator interface {
	Evaluate(board Board, color PlayerColor) float64
}

// DiscEvaluator is the disc-count differential.
type DiscEvaluator struct{}

func (DiscEvaluator) Evaluate(board Board, color PlayerColor) float64 {
	return discDifferential(board, color)
}

func discDifferential(board Board, color PlayerColor) float64 {
	dark, light := board.DiscCounts()
	diff := float64(dark - light)
	if color == PlayerLight {
		return -diff
	}
	return diff
}

type squareClass uint8

const (
	squareInner squareClass = iota
	squareEdge
	squareCorner
	squareX
	squareC
)

type squareTables struct {
	mu     sync.Mutex
	tables map[int][]squareClass
}

var cachedSquareTables = &squareTables{tables: make(map[int][]squareClass)}

func squareTableForSize(size int) []squareClass {
	cachedSquareTables.mu.Lock()
	defer cachedSquareTables.mu.Unlock()
	if table, ok := cachedSquareTables.tables[size]; ok {
		return table
	}
	table := buildSquareTable(size)
	cachedSquareTables.tables[size] = table
	return table
}

func buildSquareTable(size int) []squareClass {
	table := make([]squareClass, size*size)
	last := size - 1
	isEnd := func(v int) bool { return v == 0 || v == last }
	nearEnd := func(v int) bool { return v == 1 || v == last-1 }
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			class := squareInner
			switch {
			case isEnd(x) && isEnd(y):
				class = squareCorner
			case nearEnd(x) && nearEnd(y) && cornerAdjacent(x, y, last):
				class = squareX
			case (isEnd(x) && nearEnd(y) || nearEnd(x) && isEnd(y)) && cornerAdjacent(x, y, last):
				class = squareC
			case isEnd(x) || isEnd(y):
				class = squareEdge
			}
			table[y*size+x] = class
		}
	}
	return table
}

func cornerAdjacent(x, y, last int) bool {
	dx := x
	if last-x < dx {
		dx = last - x
	}
	dy := y
	if last-y < dy {
		dy = last - y
	}
	return dx <= 1 && dy <= 1
}

// PositionalEvaluator weighs squares and mobility. Finished games score the
// exact disc differential scaled by Terminal so wins dominate heuristics.
type PositionalEvaluator struct {
	weights HeuristicConfig
}

func NewPositionalEvaluator(weights HeuristicConfig) PositionalEvaluator {
	return PositionalEvaluator{weights: weights}
}

func (p PositionalEvaluator) Evaluate(board Board, color PlayerColor) float64 {
	opp := otherPlayer(color)
	ownMoves := len(LegalMoves(board, color))
	oppMoves := len(LegalMoves(board, opp))
	if ownMoves == 0 && oppMoves == 0 {
		return p.weights.Terminal * discDifferential(board, color)
	}
	own := CellFromPlayer(color)
	table := squareTableForSize(board.Size())
	score := 0.0
	size := board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cell := board.At(x, y)
			if cell == CellEmpty {
				continue
			}
			weight := p.squareWeight(table[y*size+x])
			if cell == own {
				score += weight
			} else {
				score -= weight
			}
		}
	}
	score += p.weights.Mobility * float64(ownMoves-oppMoves)
	return score
}

func (p PositionalEvaluator) squareWeight(class squareClass) float64 {
	switch class {
	case squareCorner:
		return p.weights.Corner
	case squareX:
		return p.weights.XSquare
	case squareC:
		return p.weights.CSquare
	case squareEdge:
		return p.weights.Edge
	default:
		return p.weights.Inner
	}
}

// NewEvaluator builds the evaluator named by config.AiEvaluator.
func NewEvaluator(config Config) (Evaluator, error) {
	switch config.AiEvaluator {
	case "", EvaluatorDisc:
		return DiscEvaluator{}, nil
	case EvaluatorPositional:
		return NewPositionalEvaluator(resolvedHeuristicConfig(config)), nil
	default:
		return nil, errors.Errorf("unknown evaluator %q", config.AiEvaluator)
	}
}

const fnv64Offset = 1469598103934665603
const fnv64Prime = 1099511628211

func resolvedHeuristicConfig(config Config) HeuristicConfig {
	defaults := DefaultConfig().Heuristics
	heuristics := config.Heuristics
	if heuristics == (HeuristicConfig{}) {
		return defaults
	}
	if heuristics.Corner == 0 {
		heuristics.Corner = defaults.Corner
	}
	if heuristics.XSquare == 0 {
		heuristics.XSquare = defaults.XSquare
	}
	if heuristics.CSquare == 0 {
		heuristics.CSquare = defaults.CSquare
	}
	if heuristics.Edge == 0 {
		heuristics.Edge = defaults.Edge
	}
	if heuristics.Inner == 0 {
		heuristics.Inner = defaults.Inner
	}
	if heuristics.Mobility == 0 {
		heuristics.Mobility = defaults.Mobility
	}
	if heuristics.Terminal <= 0 {
		heuristics.Terminal = defaults.Terminal
	}
	return heuristics
}

func heuristicHash(config HeuristicConfig) uint64 {
	hash := uint64(fnv64Offset)
	mix := func(value float64) {
		if value == 0 {
			value = 0 // -0
		}
		bits := math.Float64bits(value)
		for i := 0; i < 8; i++ {
			hash ^= uint64(byte(bits >> (8 * i)))
			hash *= fnv64Prime
		}
	}
	mix(config.Corner)
	mix(config.XSquare)
	mix(config.CSquare)
	mix(config.Edge)
	mix(config.Inner)
	mix(config.Mobility)
	mix(config.Terminal)
	return hash
}

// evaluatorHash identifies the active evaluator in logs and API replies. The
// disc evaluator has no weights and hashes to the bare offset.
func evaluatorHash(config Config) uint64 {
	if config.AiEvaluator != EvaluatorPositional {
		return fnv64Offset
	}
	return heuristicHash(resolvedHeuristicConfig(config))
}
