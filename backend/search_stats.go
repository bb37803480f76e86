package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
)

type SearchStats struct {
	Nodes         int64     `json:"nodes"`
	LeafEvals     int64     `json:"leaf_evals"`
	OrderingEvals int64     `json:"ordering_evals"`
	TTProbes      int64     `json:"tt_probes"`
	TTHits        int64     `json:"tt_hits"`
	TTExactHits   int64     `json:"tt_exact_hits"`
	TTLowerHits   int64     `json:"tt_lower_hits"`
	TTUpperHits   int64     `json:"tt_upper_hits"`
	TTStores      int64     `json:"tt_stores"`
	Cutoffs       int64     `json:"cutoffs"`
	MaxPly        int       `json:"max_ply"`
	RootMoves     int       `json:"root_moves"`
	Start         time.Time `json:"-"`
}

func (s *SearchStats) recordHit(flag TTFlag) {
	s.TTHits++
	switch flag {
	case TTLower:
		s.TTLowerHits++
	case TTUpper:
		s.TTUpperHits++
	default:
		s.TTExactHits++
	}
}

func logSearchStats(tag string, decision Decision, cacheSize int) {
	stats := decision.Stats
	elapsed := decision.Elapsed
	nps := 0.0
	if elapsed > 0 {
		nps = float64(stats.Nodes) / elapsed.Seconds()
	}
	ttHitRate := 0.0
	if stats.TTProbes > 0 {
		ttHitRate = float64(stats.TTHits) * 100.0 / float64(stats.TTProbes)
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Info().
		Str("tag", tag).
		Str("move", decision.Move.String()).
		Float64("utility", decision.Utility).
		Str("depth", decision.Config.Depth.String()).
		Str("algorithm", decision.Config.Algorithm.String()).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Int64("nodes", stats.Nodes).
		Float64("nps", nps).
		Int64("leaf_evals", stats.LeafEvals).
		Int64("ordering_evals", stats.OrderingEvals).
		Int("tt_size", cacheSize).
		Int64("tt_probe", stats.TTProbes).
		Str("tt_hit_rate", fmt.Sprintf("%.1f%%", ttHitRate)).
		Str("tt_hit_flag", fmt.Sprintf("(e:%d l:%d u:%d)", stats.TTExactHits, stats.TTLowerHits, stats.TTUpperHits)).
		Int64("tt_store", stats.TTStores).
		Int64("cutoffs", stats.Cutoffs).
		Int("max_ply", stats.MaxPly).
		Str("mem_heap", formatBytes(mem.HeapAlloc)).
		Msgf("[ai:%s] search finished", tag)
}

func formatBytes(n uint64) string {
	const (
		kb = 1 << (10 * 1)
		mb = 1 << (10 * 2)
		gb = 1 << (10 * 3)
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(gb))
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.2f kB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
