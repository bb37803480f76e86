package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type StatusResponse struct {
	Settings        GameSettings      `json:"settings"`
	Board           [][]int           `json:"board"`
	BoardSize       int               `json:"board_size"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	Dark            int               `json:"dark"`
	Light           int               `json:"light"`
	Passes          int               `json:"passes"`
	LegalMoves      []Move            `json:"legal_moves"`
	History         []historyEntryDTO `json:"history"`
	AiThinking      bool              `json:"ai_thinking"`
	Hash            string            `json:"hash"`
	LastMessage     string            `json:"last_message,omitempty"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type historyEntryDTO struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Player    int     `json:"player"`
	Pass      bool    `json:"pass"`
	Flipped   int     `json:"flipped"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Utility   float64 `json:"utility"`
	Depth     int     `json:"depth"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type selectRequest struct {
	Board        [][]int `json:"board"`
	Color        int     `json:"color"`
	DepthLimit   *int    `json:"depth_limit"`
	Algorithm    string  `json:"algorithm"`
	Caching      *bool   `json:"caching"`
	Ordering     *bool   `json:"ordering"`
	CacheEntries int     `json:"cache_entries"`
}

type cacheEntryDTO struct {
	Hash    string  `json:"hash"`
	Hits    uint32  `json:"hits"`
	Flag    string  `json:"flag"`
	Depth   int     `json:"depth"`
	Move    Move    `json:"move"`
	Utility float64 `json:"utility"`
}

type selectResponse struct {
	Move          Move            `json:"move"`
	Utility       float64         `json:"utility"`
	Stats         SearchStats     `json:"stats"`
	Search        SearchConfig    `json:"search"`
	BoardHash     string          `json:"board_hash"`
	Evaluator     string          `json:"evaluator"`
	EvaluatorHash string          `json:"evaluator_hash"`
	ElapsedMs     int64           `json:"elapsed_ms"`
	CacheSize     int             `json:"cache_size"`
	CacheEntries  []cacheEntryDTO `json:"cache_entries,omitempty"`
}

type startRequest struct {
	Size         int           `json:"size"`
	Dark         *SearchConfig `json:"dark"`
	Light        *SearchConfig `json:"light"`
	DarkHuman    bool          `json:"dark_human"`
	LightHuman   bool          `json:"light_human"`
	OpeningPlies int           `json:"opening_plies"`
	Seed         uint64        `json:"seed"`
}

func newRouter(controller *GameController, hub *Hub, ghostHub *GhostHub, analitics *AnaliticsHub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/api/select", handleSelect)

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload startRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid payload"))
			return
		}
		settings, err := settingsFromStart(payload)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		analitics.Reset()
		controller.StartGame(settings)
		status := controllerStatus(controller)
		hub.Publish("reset", status)
		writeJSON(w, http.StatusOK, status)
	})

	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		controller.Stop()
		status := controllerStatus(controller)
		hub.Publish("status", status)
		writeJSON(w, http.StatusOK, status)
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var move Move
		if err := json.NewDecoder(r.Body).Decode(&move); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid payload"))
			return
		}
		applied, reason := controller.ApplyHumanMove(move)
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": reason})
			return
		}
		if entry, ok := controller.LatestHistoryEntry(); ok {
			hub.Publish("history", historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
		}
		status := controllerStatus(controller)
		hub.Publish("status", status)
		writeJSON(w, http.StatusOK, status)
	})

	r.Get("/api/analitics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, analitics.Heaviest(analiticsLimitFromQuery(r)))
	})

	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GetConfig())
	})

	r.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		config := GetConfig()
		if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid payload"))
			return
		}
		if err := config.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		configStore.Update(config)
		log.Info().
			Str("evaluator", config.AiEvaluator).
			Str("cache_policy", string(config.AiCachePolicy)).
			Msg("[backend] config updated")
		hub.Publish("config", config)
		writeJSON(w, http.StatusOK, config)
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})
	r.Get("/ws/ghost", func(w http.ResponseWriter, r *http.Request) {
		serveGhostWS(ghostHub, w, r)
	})
	r.Get("/ws/analitics", func(w http.ResponseWriter, r *http.Request) {
		serveAnaliticsWS(analitics, w, r)
	})
	return r
}

// handleSelect runs one decision on a fresh selector, so concurrent requests
// never share a cache.
func handleSelect(w http.ResponseWriter, r *http.Request) {
	var payload selectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid payload"))
		return
	}
	config := GetConfig()
	board, err := BoardFromRows(payload.Board)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	color, err := playerFromInt(payload.Color)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	search, err := searchFromRequest(payload, config.DefaultSearch())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	selector, err := NewMoveSelectorFromConfig(config)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	decision, err := selector.Decide(board, color, search)
	if errors.Is(err, ErrNoLegalMoves) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if config.AiLogSearchStats {
		logSearchStats("api", decision, selector.Cache().Count())
	}
	response := selectResponse{
		Move:          decision.Move,
		Utility:       decision.Utility,
		Stats:         decision.Stats,
		Search:        search,
		BoardHash:     formatHash(HashPosition(board, color)),
		Evaluator:     config.AiEvaluator,
		EvaluatorHash: formatHash(evaluatorHash(config)),
		ElapsedMs:     decision.Elapsed.Milliseconds(),
		CacheSize:     selector.Cache().Count(),
	}
	if payload.CacheEntries > 0 {
		limit := payload.CacheEntries
		if limit > 100 {
			limit = 100
		}
		for _, entry := range selector.Cache().TopEntriesByHits(limit) {
			response.CacheEntries = append(response.CacheEntries, cacheEntryToDTO(entry))
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func searchFromRequest(payload selectRequest, base SearchConfig) (SearchConfig, error) {
	search := base
	if payload.Algorithm != "" {
		if err := search.Algorithm.UnmarshalText([]byte(payload.Algorithm)); err != nil {
			return search, err
		}
	}
	if payload.DepthLimit != nil {
		search.Depth = DepthFromInt(*payload.DepthLimit)
	}
	if payload.Caching != nil {
		search.Caching = *payload.Caching
	}
	if payload.Ordering != nil {
		search.Ordering = *payload.Ordering
	}
	return search, nil
}

func settingsFromStart(payload startRequest) (GameSettings, error) {
	settings := DefaultGameSettings()
	defaults := GetConfig().DefaultSearch()
	settings.DarkSearch = defaults
	settings.LightSearch = defaults
	if payload.Size != 0 {
		if payload.Size < MinBoardSize || payload.Size > MaxBoardSize || payload.Size%2 != 0 {
			return settings, errors.Errorf("board size %d must be even and within [%d,%d]", payload.Size, MinBoardSize, MaxBoardSize)
		}
		settings.BoardSize = payload.Size
	}
	if payload.Dark != nil {
		settings.DarkSearch = *payload.Dark
	}
	if payload.Light != nil {
		settings.LightSearch = *payload.Light
	}
	if payload.DarkHuman {
		settings.DarkType = PlayerHuman
	}
	if payload.LightHuman {
		settings.LightType = PlayerHuman
	}
	if payload.OpeningPlies < 0 {
		return settings, errors.New("opening_plies must not be negative")
	}
	settings.OpeningPlies = payload.OpeningPlies
	settings.Seed = payload.Seed
	return settings, nil
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	dark, light := state.Board.DiscCounts()
	legal := LegalMoves(state.Board, state.ToMove)
	if state.Status != StatusRunning || legal == nil {
		legal = []Move{}
	}
	return StatusResponse{
		Settings:        controller.Settings(),
		Board:           state.Board.Rows(),
		BoardSize:       state.Board.Size(),
		NextPlayer:      int(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          state.Status.String(),
		Dark:            dark,
		Light:           light,
		Passes:          state.Passes,
		LegalMoves:      legal,
		History:         historyToDTO(controller.History()),
		AiThinking:      controller.AiThinking(),
		Hash:            formatHash(state.Hash),
		LastMessage:     state.LastMessage,
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusDarkWon:
		return int(PlayerDark)
	case StatusLightWon:
		return int(PlayerLight)
	default:
		return 0
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		X:         entry.Move.X,
		Y:         entry.Move.Y,
		Player:    int(entry.Player),
		Pass:      entry.Pass,
		Flipped:   entry.Flipped,
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
		Utility:   entry.Utility,
		Depth:     entry.Depth,
	}
}

func cacheEntryToDTO(entry TTEntry) cacheEntryDTO {
	flag := "exact"
	switch entry.Flag {
	case TTLower:
		flag = "lower"
	case TTUpper:
		flag = "upper"
	}
	return cacheEntryDTO{
		Hash:    formatHash(HashBoard(entry.Board)),
		Hits:    entry.Hits,
		Flag:    flag,
		Depth:   entry.Depth.Int(),
		Move:    entry.Result.Move,
		Utility: entry.Result.Utility,
	}
}

func formatHash(hash uint64) string {
	return fmt.Sprintf("0x%016x", hash)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("[backend] write response failed")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
