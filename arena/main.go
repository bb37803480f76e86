package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

type arenaStatus struct {
	Running         bool        `json:"running"`
	Phase           string      `json:"phase"`
	Message         string      `json:"message"`
	RunID           string      `json:"run_id"`
	GamesPlayed     int         `json:"games_played"`
	GamesTotal      int         `json:"games_total"`
	Contenders      []contender `json:"contenders"`
	Summary         *runSummary `json:"summary,omitempty"`
	PerformanceDiff float64     `json:"performance_diff"`
	UpdatedAt       string      `json:"updated_at"`
}

// arena plays a series of games between two engine configurations on one
// backend and keeps the results in SQLite.
type arena struct {
	client       *backendClient
	store        *gameStore
	games        int
	boardSize    int
	openingPlies int
	gameTimeout  time.Duration
	eloK         float64
	a            contender
	b            contender

	statusMu sync.RWMutex
	status   arenaStatus
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		With().
		Timestamp().
		Logger()

	a, err := newArenaFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("[arena] invalid configuration")
	}
	defer a.store.Close()

	apiAddr := getenv("ARENA_API_ADDR", ":8090")
	exitWhenDone := getenvBool("ARENA_EXIT_WHEN_DONE", true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveStatus(gctx, apiAddr, a)
	})
	g.Go(func() error {
		err := a.runSeries(gctx)
		if exitWhenDone {
			stop()
		}
		return err
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("[arena] stopped")
	}
	log.Info().Msg("[arena] stopping")
}

func newArenaFromEnv() (*arena, error) {
	a := contender{ID: "A", Elo: initialElo}
	b := contender{ID: "B", Elo: initialElo}
	var err error
	if a.Search, err = parseSearch("ARENA_A", searchConfig{Algorithm: "alphabeta", Depth: 4, Ordering: true}); err != nil {
		return nil, err
	}
	if b.Search, err = parseSearch("ARENA_B", searchConfig{Algorithm: "minimax", Depth: 2}); err != nil {
		return nil, err
	}
	boardSize := getenvInt("ARENA_BOARD_SIZE", 8)
	if boardSize%2 != 0 {
		return nil, errors.Errorf("ARENA_BOARD_SIZE must be even, got %d", boardSize)
	}
	store, err := openGameStore(getenv("ARENA_DB_PATH", "arena.db"))
	if err != nil {
		return nil, err
	}
	pollMs := getenvInt("ARENA_POLL_MS", 200)
	return &arena{
		client:       newBackendClient(strings.TrimRight(getenv("ARENA_BACKEND_URL", "http://localhost:8080"), "/"), time.Duration(pollMs)*time.Millisecond),
		store:        store,
		games:        getenvInt("ARENA_GAMES", 10),
		boardSize:    boardSize,
		openingPlies: getenvInt("ARENA_OPENING_PLIES", 4),
		gameTimeout:  time.Duration(getenvInt("ARENA_GAME_TIMEOUT_SEC", 300)) * time.Second,
		eloK:         getenvFloat("ARENA_ELO_K", 20),
		a:            a,
		b:            b,
		status: arenaStatus{
			Phase:     "idle",
			Message:   "service ready",
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func parseSearch(key string, fallback searchConfig) (searchConfig, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	search := fallback
	if err := json.Unmarshal([]byte(raw), &search); err != nil {
		return fallback, errors.Wrapf(err, "%s", key)
	}
	return search, nil
}

// runSeries plays the configured number of games. Games come in pairs that
// share an opening seed with colors swapped.
func (a *arena) runSeries(ctx context.Context) error {
	runID := fmt.Sprintf("%016x", frand.Uint64n(math.MaxUint64))
	a.updateStatus(func(s *arenaStatus) {
		s.Running = true
		s.Phase = "waiting"
		s.Message = "waiting for backend"
		s.RunID = runID
		s.GamesTotal = a.games
	})
	defer a.updateStatus(func(s *arenaStatus) {
		s.Running = false
	})
	if err := a.client.waitReady(ctx, 60*time.Second); err != nil {
		a.fail(err)
		return err
	}
	log.Info().
		Str("run", runID).
		Int("games", a.games).
		Interface("a", a.a.Search).
		Interface("b", a.b.Search).
		Msg("[arena] series starting")

	played := 0
	var seed uint64
	for played < a.games {
		if played%2 == 0 {
			seed = frand.Uint64n(math.MaxUint64) + 1
		}
		aDark := played%2 == 0
		record, err := a.playOne(ctx, runID, seed, aDark)
		if err != nil {
			a.fail(err)
			return err
		}
		if err := a.store.RecordGame(record); err != nil {
			a.fail(err)
			return err
		}
		result := scoreForDark(record.Winner)
		if !aDark {
			result = 1 - result
		}
		updateElo(&a.a, &a.b, result, a.eloK)
		played++
		log.Info().
			Int("game", played).
			Str("dark", record.DarkID).
			Int("winner", record.Winner).
			Int("dark_discs", record.DarkDiscs).
			Int("light_discs", record.LightDiscs).
			Float64("elo_a", a.a.Elo).
			Float64("elo_b", a.b.Elo).
			Msg("[arena] game finished")
		a.updateStatus(func(s *arenaStatus) {
			s.Phase = "running"
			s.Message = fmt.Sprintf("game %d/%d finished", played, a.games)
			s.GamesPlayed = played
			s.Contenders = []contender{a.a, a.b}
		})
	}

	summary, err := a.store.Summary(runID, a.a.ID)
	if err != nil {
		a.fail(err)
		return err
	}
	diff := performanceDiff(summary.Points, summary.Games)
	log.Info().
		Str("run", runID).
		Int("wins", summary.Wins).
		Int("draws", summary.Draws).
		Int("losses", summary.Losses).
		Float64("performance_diff", diff).
		Msg("[arena] series finished")
	a.updateStatus(func(s *arenaStatus) {
		s.Phase = "done"
		s.Message = "series finished"
		s.Summary = &summary
		s.PerformanceDiff = diff
	})
	return nil
}

func (a *arena) playOne(ctx context.Context, runID string, seed uint64, aDark bool) (gameRecord, error) {
	dark, light := a.a, a.b
	if !aDark {
		dark, light = a.b, a.a
	}
	request := startRequest{
		Size:         a.boardSize,
		Dark:         &dark.Search,
		Light:        &light.Search,
		OpeningPlies: a.openingPlies,
		Seed:         seed,
	}
	start := time.Now()
	status, err := a.client.playGame(ctx, request, a.gameTimeout)
	if err != nil {
		return gameRecord{}, err
	}
	if status.Status == "not_started" {
		return gameRecord{}, errors.New("game was stopped on the backend")
	}
	return gameRecord{
		RunID:       runID,
		PlayedAt:    start,
		Seed:        seed,
		BoardSize:   status.BoardSize,
		DarkID:      dark.ID,
		LightID:     light.ID,
		DarkSearch:  dark.Search,
		LightSearch: light.Search,
		Winner:      status.Winner,
		DarkDiscs:   status.Dark,
		LightDiscs:  status.Light,
		Moves:       len(status.History),
		Duration:    time.Since(start),
	}, nil
}

func (a *arena) fail(err error) {
	log.Error().Err(err).Msg("[arena] series failed")
	a.updateStatus(func(s *arenaStatus) {
		s.Phase = "error"
		s.Message = err.Error()
	})
}

func (a *arena) getStatus() arenaStatus {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

func (a *arena) updateStatus(mutator func(*arenaStatus)) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	mutator(&a.status)
	a.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func newStatusRouter(a *arena) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/arena/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": a.getStatus().Running})
	})
	r.Get("/api/arena/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.getStatus())
	})
	return r
}

func serveStatus(ctx context.Context, addr string, a *arena) error {
	server := &http.Server{Addr: addr, Handler: newStatusRouter(a)}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "arena status api")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(getenv(key, ""))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(getenv(key, ""), 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}
