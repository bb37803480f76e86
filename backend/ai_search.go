package main

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
)

type Algorithm int

const (
	AlgorithmMinimax Algorithm = iota + 1
	AlgorithmAlphaBeta
)

// AlgorithmFromInt maps the protocol encoding: 1 is minimax, anything else
// alpha-beta.
func AlgorithmFromInt(value int) Algorithm {
	if value == 1 {
		return AlgorithmMinimax
	}
	return AlgorithmAlphaBeta
}

func (a Algorithm) String() string {
	if a == AlgorithmMinimax {
		return "minimax"
	}
	return "alphabeta"
}

func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "minimax", "1":
		*a = AlgorithmMinimax
	case "alphabeta", "alpha-beta", "alpha_beta", "2":
		*a = AlgorithmAlphaBeta
	default:
		return errors.Errorf("unknown algorithm %q", string(text))
	}
	return nil
}

type SearchConfig struct {
	Algorithm Algorithm  `json:"algorithm"`
	Depth     DepthLimit `json:"depth"`
	Caching   bool       `json:"caching"`
	Ordering  bool       `json:"ordering"`
}

func DefaultSearchConfig() SearchConfig {
	return DefaultConfig().DefaultSearch()
}

func (d DepthLimit) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Int())
}

func (d *DepthLimit) UnmarshalJSON(data []byte) error {
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.Wrap(err, "depth must be an integer")
	}
	*d = DepthFromInt(value)
	return nil
}

// SearchResult is the outcome of one node. Move is NoMove at cutoff nodes.
type SearchResult struct {
	Move    Move    `json:"move"`
	Utility float64 `json:"utility"`
}

// searcher walks the tree for one decision. Utilities are always relative to
// color; only the mover alternates between max and min nodes.
type searcher struct {
	color     PlayerColor
	algorithm Algorithm
	eval      Evaluator
	cache     *TranspositionCache
	ordering  bool
	stats     *SearchStats
	onRoot    func(RootCandidate)
}

func (s *searcher) leaf(board Board) SearchResult {
	s.stats.LeafEvals++
	return SearchResult{Move: NoMove, Utility: s.eval.Evaluate(board, s.color)}
}

func (s *searcher) enter(ply int) {
	s.stats.Nodes++
	if ply > s.stats.MaxPly {
		s.stats.MaxPly = ply
	}
}

func (s *searcher) probe(board Board, depth DepthLimit, alpha, beta float64) (SearchResult, bool) {
	if s.cache == nil {
		return SearchResult{}, false
	}
	s.stats.TTProbes++
	result, flag, ok := s.cache.Probe(board, depth, alpha, beta)
	if ok {
		s.stats.recordHit(flag)
	}
	return result, ok
}

// store caches a successor's result. alpha and beta are the window the
// successor was searched with.
func (s *searcher) store(board Board, depth DepthLimit, result SearchResult, alpha, beta float64) {
	if s.cache == nil {
		return
	}
	if s.cache.StoreBounded(board, depth, result, boundFlag(result.Utility, alpha, beta)) {
		s.stats.TTStores++
	}
}

func (s *searcher) minimaxMax(board Board, depth DepthLimit, ply int) SearchResult {
	s.enter(ply)
	if cached, ok := s.probe(board, depth, math.Inf(-1), math.Inf(1)); ok {
		return cached
	}
	moves := LegalMoves(board, s.color)
	if len(moves) == 0 || depth.Exhausted() {
		return s.leaf(board)
	}
	best := SearchResult{Move: NoMove, Utility: math.Inf(-1)}
	for _, move := range moves {
		child := ApplyMove(board, s.color, move)
		result := s.minimaxMin(child, depth.Next(), ply+1)
		s.store(child, depth.Next(), result, math.Inf(-1), math.Inf(1))
		if best.Move.IsNone() || result.Utility > best.Utility {
			best = SearchResult{Move: move, Utility: result.Utility}
		}
	}
	return best
}

func (s *searcher) minimaxMin(board Board, depth DepthLimit, ply int) SearchResult {
	s.enter(ply)
	if cached, ok := s.probe(board, depth, math.Inf(-1), math.Inf(1)); ok {
		return cached
	}
	opp := otherPlayer(s.color)
	moves := LegalMoves(board, opp)
	if len(moves) == 0 || depth.Exhausted() {
		return s.leaf(board)
	}
	best := SearchResult{Move: NoMove, Utility: math.Inf(1)}
	for _, move := range moves {
		child := ApplyMove(board, opp, move)
		result := s.minimaxMax(child, depth.Next(), ply+1)
		s.store(child, depth.Next(), result, math.Inf(-1), math.Inf(1))
		if best.Move.IsNone() || result.Utility < best.Utility {
			best = SearchResult{Move: move, Utility: result.Utility}
		}
	}
	return best
}

func (s *searcher) alphaBetaMax(board Board, depth DepthLimit, alpha, beta float64, ply int) SearchResult {
	s.enter(ply)
	if cached, ok := s.probe(board, depth, alpha, beta); ok {
		return cached
	}
	moves := LegalMoves(board, s.color)
	if len(moves) == 0 || depth.Exhausted() {
		return s.leaf(board)
	}
	if s.ordering {
		moves = s.orderMoves(board, moves)
	}
	best := SearchResult{Move: NoMove, Utility: math.Inf(-1)}
	for _, move := range moves {
		child := ApplyMove(board, s.color, move)
		result := s.alphaBetaMin(child, depth.Next(), alpha, beta, ply+1)
		s.store(child, depth.Next(), result, alpha, beta)
		if best.Move.IsNone() || result.Utility > best.Utility {
			best = SearchResult{Move: move, Utility: result.Utility}
		}
		alpha = math.Max(alpha, result.Utility)
		if beta <= alpha {
			s.stats.Cutoffs++
			break
		}
	}
	return best
}

func (s *searcher) alphaBetaMin(board Board, depth DepthLimit, alpha, beta float64, ply int) SearchResult {
	s.enter(ply)
	if cached, ok := s.probe(board, depth, alpha, beta); ok {
		return cached
	}
	opp := otherPlayer(s.color)
	moves := LegalMoves(board, opp)
	if len(moves) == 0 || depth.Exhausted() {
		return s.leaf(board)
	}
	best := SearchResult{Move: NoMove, Utility: math.Inf(1)}
	for _, move := range moves {
		child := ApplyMove(board, opp, move)
		result := s.alphaBetaMax(child, depth.Next(), alpha, beta, ply+1)
		s.store(child, depth.Next(), result, alpha, beta)
		if best.Move.IsNone() || result.Utility < best.Utility {
			best = SearchResult{Move: move, Utility: result.Utility}
		}
		beta = math.Min(beta, result.Utility)
		if beta <= alpha {
			s.stats.Cutoffs++
			break
		}
	}
	return best
}

// searchRoot is the top-level max node. moves is non-empty and depth is not
// exhausted. With ordering on, every child is searched with a lower bound one
// ulp below alpha so ties come back exact, and ties go to the move listed
// first by LegalMoves. That keeps the chosen move identical to an unordered
// search.
func (s *searcher) searchRoot(board Board, depth DepthLimit, moves []Move) SearchResult {
	s.enter(0)
	s.stats.RootMoves = len(moves)
	candidates := make([]indexedMove, len(moves))
	for i, move := range moves {
		candidates[i] = indexedMove{move: move, index: i}
	}
	tieBreak := s.algorithm == AlgorithmAlphaBeta && s.ordering
	if tieBreak {
		candidates = s.orderIndexed(board, candidates)
	}

	alpha := math.Inf(-1)
	beta := math.Inf(1)
	best := SearchResult{Move: NoMove, Utility: math.Inf(-1)}
	bestIndex := -1
	for _, candidate := range candidates {
		child := ApplyMove(board, s.color, candidate.move)
		lower := alpha
		var result SearchResult
		if s.algorithm == AlgorithmMinimax {
			lower = math.Inf(-1)
			result = s.minimaxMin(child, depth.Next(), 1)
		} else {
			if tieBreak {
				lower = math.Nextafter(alpha, math.Inf(-1))
			}
			result = s.alphaBetaMin(child, depth.Next(), lower, beta, 1)
		}
		s.store(child, depth.Next(), result, lower, beta)
		if s.onRoot != nil {
			s.onRoot(RootCandidate{Move: candidate.move, Utility: result.Utility, Index: candidate.index})
		}
		better := bestIndex < 0 || result.Utility > best.Utility
		if tieBreak && result.Utility == best.Utility && candidate.index < bestIndex {
			better = true
		}
		if better {
			best = SearchResult{Move: candidate.move, Utility: result.Utility}
			bestIndex = candidate.index
		}
		alpha = math.Max(alpha, result.Utility)
	}
	return best
}

// greedyMove picks the first strictly best move by the evaluator alone.
func (s *searcher) greedyMove(board Board, moves []Move) SearchResult {
	s.enter(0)
	s.stats.RootMoves = len(moves)
	best := SearchResult{Move: NoMove, Utility: math.Inf(-1)}
	for _, move := range moves {
		s.enter(1)
		result := s.leaf(ApplyMove(board, s.color, move))
		if best.Move.IsNone() || result.Utility > best.Utility {
			best = SearchResult{Move: move, Utility: result.Utility}
		}
	}
	return best
}
