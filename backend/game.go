package main

import (
	"encoding/binary"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

type Game struct {
	settings    GameSettings
	rules       Rules
	state       GameState
	history     MoveHistory
	darkPlayer  IPlayer
	lightPlayer IPlayer
	turnStart   time.Time
	lastThink   time.Time
	onDecision  func(PlayerColor, uint64, Decision)
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.stopPlayers()
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
	g.createPlayers()
	g.turnStart = time.Now()
	g.logMatchup()
}

func (g *Game) Start() {
	if g.state.Status != StatusNotStarted {
		return
	}
	g.state.Status = StatusRunning
	g.playOpening()
	g.turnStart = time.Now()
	g.resolvePasses()
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

// TryApplyMove plays move for the side to move, then skips the turns of any
// side left without a legal move.
func (g *Game) TryApplyMove(move Move) (bool, string) {
	return g.applyMove(move, HistoryEntry{})
}

func (g *Game) applyMove(move Move, entry HistoryEntry) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, "game not running"
	}
	prevToMove := g.state.ToMove
	ok, reason := g.rules.IsLegal(g.state, move, prevToMove)
	if !ok {
		g.state.LastMessage = "Illegal move: " + reason
		return false, g.state.LastMessage
	}
	g.state.LastMessage = ""
	flips := Flips(g.state.Board, prevToMove, move)
	g.state.Board = ApplyMove(g.state.Board, prevToMove, move)
	g.state.LastMove = move
	g.state.HasLastMove = true
	g.state.Passes = 0
	g.state.ToMove = otherPlayer(prevToMove)
	UpdateHashAfterMove(&g.state, move, prevToMove, flips, prevToMove)

	entry.Move = move
	entry.Player = prevToMove
	entry.Flipped = len(flips)
	entry.ElapsedMs = float64(time.Since(g.turnStart).Milliseconds())
	g.history.Push(entry)
	g.logMovePlayed(entry)

	g.turnStart = time.Now()
	g.resolvePasses()
	return true, ""
}

// resolvePasses hands the turn over while the mover cannot play and ends the
// game once neither side can.
func (g *Game) resolvePasses() {
	for g.state.Status == StatusRunning {
		if HasLegalMove(g.state.Board, g.state.ToMove) {
			return
		}
		if !HasLegalMove(g.state.Board, otherPlayer(g.state.ToMove)) {
			g.state.Status = g.rules.Winner(g.state.Board)
			g.logResult()
			return
		}
		g.history.Push(HistoryEntry{Move: NoMove, Player: g.state.ToMove, Pass: true})
		log.Debug().Str("player", g.state.ToMove.String()).Msg("[game] pass")
		g.state.Passes++
		g.state.ToMove = otherPlayer(g.state.ToMove)
		g.state.recomputeHash()
	}
}

// playOpening plays OpeningPlies uniformly random legal moves. A zero seed
// draws a fresh one.
func (g *Game) playOpening() {
	if g.settings.OpeningPlies <= 0 {
		return
	}
	seed := g.settings.Seed
	if seed == 0 {
		seed = frand.Uint64n(^uint64(0)) + 1
		g.settings.Seed = seed
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	rng := frand.NewCustom(key[:], 64, 12)
	for ply := 0; ply < g.settings.OpeningPlies && g.state.Status == StatusRunning; ply++ {
		g.resolvePasses()
		if g.state.Status != StatusRunning {
			return
		}
		moves := LegalMoves(g.state.Board, g.state.ToMove)
		move := moves[rng.Intn(len(moves))]
		g.applyMove(move, HistoryEntry{})
	}
}

func (g *Game) Tick(onRoot func(PlayerColor, RootCandidate)) bool {
	if g.state.Status != StatusRunning {
		return false
	}
	player := g.currentPlayer()
	if player == nil {
		return false
	}
	if human, ok := player.(*HumanPlayer); ok {
		if human.HasPendingMove() {
			applied, _ := g.TryApplyMove(human.TakePendingMove())
			return applied
		}
		return false
	}
	ai, ok := player.(*AIPlayer)
	if !ok {
		return false
	}
	if ai.HasMoveReady() {
		delay := time.Duration(GetConfig().AiMoveDelayMs) * time.Millisecond
		if delay > 0 && time.Since(g.lastThink) < delay {
			return false
		}
		move, decision := ai.TakeMove()
		color := g.state.ToMove
		positionHash := g.state.Hash
		entry := HistoryEntry{
			IsAi:    true,
			Utility: decision.Utility,
			Depth:   decision.Config.Depth.Int(),
		}
		applied, reason := g.applyMove(move, entry)
		if !applied {
			log.Error().Str("move", move.String()).Str("reason", reason).Msg("[game] engine produced an illegal move")
			g.state.Status = g.rules.Winner(g.state.Board)
			return false
		}
		if g.onDecision != nil {
			g.onDecision(color, positionHash, decision)
		}
		return applied
	}
	if !ai.IsThinking() {
		color := g.state.ToMove
		var sink func(RootCandidate)
		if onRoot != nil {
			sink = func(candidate RootCandidate) { onRoot(color, candidate) }
		}
		g.lastThink = time.Now()
		ai.StartThinking(g.state.Clone(), sink)
	}
	return false
}

func (g *Game) SubmitHumanMove(move Move) bool {
	player := g.currentPlayer()
	if player == nil || !player.IsHuman() {
		return false
	}
	human, ok := player.(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) AiThinking() bool {
	ai, ok := g.currentPlayer().(*AIPlayer)
	return ok && ai.IsThinking()
}

// Stop ends a running game without a result and abandons pending searches.
func (g *Game) Stop() {
	g.stopPlayers()
	if g.state.Status == StatusRunning {
		g.state.Status = StatusNotStarted
		g.state.LastMessage = "stopped"
	}
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForColor(g.state.ToMove)
}

func (g *Game) playerForColor(color PlayerColor) IPlayer {
	if color == PlayerDark {
		return g.darkPlayer
	}
	return g.lightPlayer
}

func (g *Game) createPlayers() {
	config := GetConfig()
	build := func(color PlayerColor) IPlayer {
		if g.settings.typeFor(color) == PlayerHuman {
			return NewHumanPlayer()
		}
		selector, err := NewMoveSelectorFromConfig(config)
		if err != nil {
			log.Warn().Err(err).Msg("[game] falling back to the disc evaluator")
			selector = NewMoveSelector(DiscEvaluator{}, CachePolicyBoard)
		}
		return NewAIPlayer(g.settings.searchFor(color), selector)
	}
	g.darkPlayer = build(PlayerDark)
	g.lightPlayer = build(PlayerLight)
}

func (g *Game) stopPlayers() {
	for _, player := range []IPlayer{g.darkPlayer, g.lightPlayer} {
		if ai, ok := player.(*AIPlayer); ok {
			ai.Stop()
		}
	}
}

func (g *Game) logMatchup() {
	label := func(color PlayerColor) string {
		if g.settings.typeFor(color) == PlayerHuman {
			return "human"
		}
		search := g.settings.searchFor(color)
		return search.Algorithm.String() + "/" + search.Depth.String()
	}
	log.Info().
		Int("size", g.settings.BoardSize).
		Str("dark", label(PlayerDark)).
		Str("light", label(PlayerLight)).
		Msg("[game] new match")
}

func (g *Game) logMovePlayed(entry HistoryEntry) {
	log.Debug().
		Str("player", entry.Player.String()).
		Str("move", entry.Move.String()).
		Int("flipped", entry.Flipped).
		Bool("ai", entry.IsAi).
		Float64("elapsed_ms", entry.ElapsedMs).
		Msg("[game] move")
}

func (g *Game) logResult() {
	dark, light := g.state.Board.DiscCounts()
	log.Info().
		Str("status", g.state.Status.String()).
		Int("dark", dark).
		Int("light", light).
		Msg("[game] finished")
}
