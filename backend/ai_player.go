package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNoLegalMoves rejects a decision on a board where the mover must pass.
var ErrNoLegalMoves = errors.New("no legal moves for the side to move")

// RootCandidate reports one searched root move.
type RootCandidate struct {
	Move    Move    `json:"move"`
	Utility float64 `json:"utility"`
	Index   int     `json:"index"`
}

type Decision struct {
	Move    Move          `json:"move"`
	Utility float64       `json:"utility"`
	Stats   SearchStats   `json:"stats"`
	Elapsed time.Duration `json:"-"`
	Config  SearchConfig  `json:"config"`
}

// MoveSelector owns the evaluator and the transposition cache of its
// decisions. Calls must not overlap.
type MoveSelector struct {
	evaluator  Evaluator
	cache      *TranspositionCache
	OnRootMove func(RootCandidate)
}

func NewMoveSelector(evaluator Evaluator, policy CachePolicy) *MoveSelector {
	if evaluator == nil {
		evaluator = DiscEvaluator{}
	}
	return &MoveSelector{evaluator: evaluator, cache: NewTranspositionCache(policy)}
}

// NewMoveSelectorFromConfig wires the evaluator and cache policy named in config.
func NewMoveSelectorFromConfig(config Config) (*MoveSelector, error) {
	evaluator, err := NewEvaluator(config)
	if err != nil {
		return nil, err
	}
	policy, err := ParseCachePolicy(string(config.AiCachePolicy))
	if err != nil {
		return nil, err
	}
	return NewMoveSelector(evaluator, policy), nil
}

func (ms *MoveSelector) Cache() *TranspositionCache {
	return ms.cache
}

func (ms *MoveSelector) SelectMove(board Board, color PlayerColor, cfg SearchConfig) (Move, error) {
	decision, err := ms.Decide(board, color, cfg)
	if err != nil {
		return NoMove, err
	}
	return decision.Move, nil
}

func (ms *MoveSelector) Decide(board Board, color PlayerColor, cfg SearchConfig) (Decision, error) {
	start := time.Now()
	ms.cache.Clear()
	stats := SearchStats{Start: start}
	moves := LegalMoves(board, color)
	if len(moves) == 0 {
		return Decision{Move: NoMove, Config: cfg}, ErrNoLegalMoves
	}
	s := &searcher{
		color:     color,
		algorithm: cfg.Algorithm,
		eval:      ms.evaluator,
		ordering:  cfg.Ordering,
		stats:     &stats,
		onRoot:    ms.OnRootMove,
	}
	if s.algorithm != AlgorithmMinimax {
		s.algorithm = AlgorithmAlphaBeta
	}
	if cfg.Caching {
		s.cache = ms.cache
	}
	var result SearchResult
	if cfg.Depth.Exhausted() {
		result = s.greedyMove(board, moves)
	} else {
		result = s.searchRoot(board, cfg.Depth, moves)
	}
	return Decision{
		Move:    result.Move,
		Utility: result.Utility,
		Stats:   stats,
		Elapsed: time.Since(start),
		Config:  cfg,
	}, nil
}

// AIPlayer searches on a background goroutine so the match ticker never
// blocks on a decision.
type AIPlayer struct {
	moveMutex  sync.Mutex
	workerDone chan struct{}
	thinking   atomic.Bool
	moveReady  atomic.Bool
	stopSignal atomic.Bool
	readyMove  Move
	decision   Decision
	search     SearchConfig
	selector   *MoveSelector
}

func NewAIPlayer(search SearchConfig, selector *MoveSelector) *AIPlayer {
	return &AIPlayer{search: search, selector: selector}
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) ChooseMove(state GameState) (Decision, error) {
	return a.selector.Decide(state.Board, state.ToMove, a.search)
}

func (a *AIPlayer) StartThinking(state GameState, onRoot func(RootCandidate)) {
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)
	a.stopSignal.Store(false)

	stateCopy := state.Clone()
	done := make(chan struct{})
	a.workerDone = done
	config := GetConfig()
	go func() {
		defer close(done)
		a.selector.OnRootMove = onRoot
		decision, err := a.ChooseMove(stateCopy)
		a.selector.OnRootMove = nil
		if a.stopSignal.Load() {
			a.moveReady.Store(false)
			a.thinking.Store(false)
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("player", stateCopy.ToMove.String()).Msg("[ai] decision failed")
		}
		if config.AiLogSearchStats {
			logSearchStats("think", decision, a.selector.Cache().Count())
		}
		a.moveMutex.Lock()
		a.readyMove = decision.Move
		a.decision = decision
		a.moveMutex.Unlock()
		a.moveReady.Store(true)
		a.thinking.Store(false)
	}()
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() (Move, Decision) {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.moveReady.Store(false)
	return a.readyMove, a.decision
}

// Stop discards the result of a running search once it finishes.
func (a *AIPlayer) Stop() {
	a.stopSignal.Store(true)
}

// Wait blocks until the background search, if any, has returned.
func (a *AIPlayer) Wait() {
	if a.workerDone != nil {
		<-a.workerDone
	}
}
