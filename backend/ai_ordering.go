package main

import "sort"

type indexedMove struct {
	move  Move
	index int
	score float64
}

// orderMoves sorts the populated move list strongest first by a one-ply
// lookahead. The sort is stable, so equal scores keep oracle order.
func (s *searcher) orderMoves(board Board, moves []Move) []Move {
	indexed := make([]indexedMove, len(moves))
	for i, move := range moves {
		indexed[i] = indexedMove{move: move, index: i}
	}
	indexed = s.orderIndexed(board, indexed)
	ordered := make([]Move, len(indexed))
	for i, candidate := range indexed {
		ordered[i] = candidate.move
	}
	return ordered
}

func (s *searcher) orderIndexed(board Board, candidates []indexedMove) []indexedMove {
	ordered := make([]indexedMove, len(candidates))
	copy(ordered, candidates)
	for i := range ordered {
		s.stats.OrderingEvals++
		ordered[i].score = s.eval.Evaluate(ApplyMove(board, s.color, ordered[i].move), s.color)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].score > ordered[j].score
	})
	return ordered
}
