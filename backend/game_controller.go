package main

import "sync"

type GameController struct {
	mu             sync.Mutex
	game           Game
	ghostEnabled   func() bool
	ghostPublisher func(ghostPayload)
	decisionSink   func(PlayerColor, uint64, Decision)
}

func NewGameController(settings GameSettings) *GameController {
	return &GameController{game: NewGame(settings)}
}

func (gc *GameController) SetGhostPublisher(enabled func() bool, publisher func(ghostPayload)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.ghostEnabled = enabled
	gc.ghostPublisher = publisher
}

// SetDecisionSink receives every engine decision applied to the board, along
// with the hash of the position it was made in.
func (gc *GameController) SetDecisionSink(sink func(PlayerColor, uint64, Decision)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.decisionSink = sink
	gc.game.onDecision = sink
}

func (gc *GameController) ApplyHumanMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if !gc.game.CurrentPlayerIsHuman() {
		return false, "not human turn"
	}
	return gc.game.TryApplyMove(move)
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	var onRoot func(PlayerColor, RootCandidate)
	if gc.ghostEnabled != nil && gc.ghostEnabled() && gc.ghostPublisher != nil {
		publisher := gc.ghostPublisher
		historyLen := gc.game.History().Size()
		onRoot = func(color PlayerColor, candidate RootCandidate) {
			publisher(ghostPayload{
				Mode:       "root_candidate",
				Player:     int(color),
				Move:       candidate.Move,
				Utility:    candidate.Utility,
				Index:      candidate.Index,
				HistoryLen: historyLen,
				Active:     true,
			})
		}
	}
	return gc.game.Tick(onRoot)
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.settings
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TurnStartedAtMs()
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	history := gc.game.History()
	if history.Size() == 0 {
		return HistoryEntry{}, false
	}
	entries := history.All()
	return entries[len(entries)-1], true
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

func (gc *GameController) StartGame(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
	gc.game.onDecision = gc.decisionSink
	gc.game.Start()
}

func (gc *GameController) Stop() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Stop()
}
