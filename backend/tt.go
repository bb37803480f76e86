package main

import (
	"sort"

	"github.com/pkg/errors"
)

type TTFlag uint8

const (
	TTExact TTFlag = iota
	TTLower
	TTUpper
)

// CachePolicy picks how freely stored results are reused.
//
// CachePolicyBoard reuses any entry for the same board, whatever depth or
// window produced it. Under alpha-beta that can return a bound as if it were
// exact. CachePolicyBounded keeps the flag and remaining depth of each entry
// and only reuses it when they prove it valid for the probing node.
type CachePolicy string

const (
	CachePolicyBoard   CachePolicy = "board"
	CachePolicyBounded CachePolicy = "bounded"
)

func ParseCachePolicy(value string) (CachePolicy, error) {
	switch CachePolicy(value) {
	case "", CachePolicyBoard:
		return CachePolicyBoard, nil
	case CachePolicyBounded:
		return CachePolicyBounded, nil
	default:
		return CachePolicyBoard, errors.Errorf("unknown cache policy %q", value)
	}
}

type TTEntry struct {
	Board  Board
	Result SearchResult
	Flag   TTFlag
	Depth  DepthLimit
	Hits   uint32
}

// TranspositionCache memoizes node results for one decision. It is not safe
// for concurrent use; every MoveSelector owns its own.
type TranspositionCache struct {
	policy  CachePolicy
	entries map[Board]TTEntry
	hits    int64
	stores  int64
}

func NewTranspositionCache(policy CachePolicy) *TranspositionCache {
	if policy == "" {
		policy = CachePolicyBoard
	}
	return &TranspositionCache{policy: policy, entries: make(map[Board]TTEntry)}
}

func (tt *TranspositionCache) Policy() CachePolicy {
	return tt.policy
}

func (tt *TranspositionCache) Clear() {
	tt.entries = make(map[Board]TTEntry)
	tt.hits = 0
	tt.stores = 0
}

// Lookup returns the stored result for board. Under the bounded policy only
// exact entries are returned.
func (tt *TranspositionCache) Lookup(board Board) (SearchResult, bool) {
	entry, ok := tt.entries[board]
	if !ok {
		return SearchResult{}, false
	}
	if tt.policy == CachePolicyBounded && entry.Flag != TTExact {
		return SearchResult{}, false
	}
	return entry.Result, true
}

// Store records an exact result.
func (tt *TranspositionCache) Store(board Board, result SearchResult) {
	tt.StoreBounded(board, UnlimitedDepth(), result, TTExact)
}

// Probe is the search-side lookup. The board policy ignores depth and window.
func (tt *TranspositionCache) Probe(board Board, depth DepthLimit, alpha, beta float64) (SearchResult, TTFlag, bool) {
	entry, ok := tt.entries[board]
	if !ok {
		return SearchResult{}, TTExact, false
	}
	if tt.policy == CachePolicyBounded {
		if entry.Depth != depth {
			return SearchResult{}, entry.Flag, false
		}
		usable := entry.Flag == TTExact ||
			(entry.Flag == TTLower && entry.Result.Utility >= beta) ||
			(entry.Flag == TTUpper && entry.Result.Utility <= alpha)
		if !usable {
			return SearchResult{}, entry.Flag, false
		}
	}
	entry.Hits++
	tt.entries[board] = entry
	tt.hits++
	return entry.Result, entry.Flag, true
}

// StoreBounded records a result with the depth it was searched to and its
// bound flag. The board policy keeps the first write. The bounded policy lets
// an exact result replace a bound but never the other way round.
func (tt *TranspositionCache) StoreBounded(board Board, depth DepthLimit, result SearchResult, flag TTFlag) bool {
	existing, ok := tt.entries[board]
	if ok {
		if tt.policy != CachePolicyBounded {
			return false
		}
		if existing.Flag == TTExact && flag != TTExact {
			return false
		}
	}
	tt.entries[board] = TTEntry{Board: board, Result: result, Flag: flag, Depth: depth}
	tt.stores++
	return true
}

func (tt *TranspositionCache) Count() int {
	return len(tt.entries)
}

func (tt *TranspositionCache) Hits() int64 {
	return tt.hits
}

func (tt *TranspositionCache) Stores() int64 {
	return tt.stores
}

func (tt *TranspositionCache) TopEntriesByHits(limit int) []TTEntry {
	if limit <= 0 {
		limit = 10
	}
	entries := make([]TTEntry, 0, len(tt.entries))
	for _, entry := range tt.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Hits != entries[j].Hits {
			return entries[i].Hits > entries[j].Hits
		}
		return HashBoard(entries[i].Board) < HashBoard(entries[j].Board)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// boundFlag classifies a fail-soft result v searched with window (alpha, beta).
func boundFlag(v, alpha, beta float64) TTFlag {
	if v <= alpha {
		return TTUpper
	}
	if v >= beta {
		return TTLower
	}
	return TTExact
}
