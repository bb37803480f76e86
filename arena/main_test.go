package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeBackend finishes every game on the second status poll. The side
// searching deeper always wins.
type fakeBackend struct {
	mu        sync.Mutex
	starts    []startRequest
	polls     int
	lastDark  searchConfig
	lastLight searchConfig
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var request startRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		f.mu.Lock()
		f.starts = append(f.starts, request)
		f.polls = 0
		f.lastDark = *request.Dark
		f.lastLight = *request.Light
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.polls++
		if f.polls < 2 {
			writeJSON(w, http.StatusOK, statusResponse{Status: "running"})
			return
		}
		winner := 2
		if f.lastDark.Depth > f.lastLight.Depth {
			winner = 1
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "finished", Winner: winner, Dark: 40, Light: 24, BoardSize: 8})
	})
	mux.HandleFunc("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	return mux
}

func TestRunSeriesAlternatesColorsAndRates(t *testing.T) {
	backend := &fakeBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	store, err := openGameStore(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("openGameStore: %v", err)
	}
	defer store.Close()

	a := &arena{
		client:       newBackendClient(server.URL, time.Millisecond),
		store:        store,
		games:        4,
		boardSize:    8,
		openingPlies: 4,
		gameTimeout:  5 * time.Second,
		eloK:         20,
		a:            contender{ID: "A", Search: searchConfig{Algorithm: "alphabeta", Depth: 4, Ordering: true}, Elo: initialElo},
		b:            contender{ID: "B", Search: searchConfig{Algorithm: "minimax", Depth: 2}, Elo: initialElo},
	}
	if err := a.runSeries(context.Background()); err != nil {
		t.Fatalf("runSeries: %v", err)
	}

	backend.mu.Lock()
	starts := backend.starts
	backend.mu.Unlock()
	if len(starts) != 4 {
		t.Fatalf("expected 4 games, got %d", len(starts))
	}
	for i, start := range starts {
		wantDark := 4
		if i%2 == 1 {
			wantDark = 2
		}
		if start.Dark.Depth != wantDark || start.Size != 8 || start.OpeningPlies != 4 {
			t.Fatalf("game %d: unexpected start %+v", i, start)
		}
	}
	if starts[0].Seed != starts[1].Seed || starts[2].Seed != starts[3].Seed {
		t.Fatalf("paired games must share an opening seed")
	}

	status := a.getStatus()
	if status.Running || status.Phase != "done" || status.GamesPlayed != 4 {
		t.Fatalf("unexpected final status %+v", status)
	}
	if status.Summary == nil || status.Summary.Wins != 4 || status.PerformanceDiff <= 0 {
		t.Fatalf("expected A to sweep the series, got %+v", status.Summary)
	}
	if a.a.Elo <= a.b.Elo {
		t.Fatalf("expected A to be rated above B, got %f vs %f", a.a.Elo, a.b.Elo)
	}
}

func TestPlayGameTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/start", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "running"})
	})
	stopped := make(chan struct{}, 1)
	mux.HandleFunc("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		stopped <- struct{}{}
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newBackendClient(server.URL, time.Millisecond)
	if _, err := client.playGame(context.Background(), startRequest{Size: 8}, 20*time.Millisecond); err == nil {
		t.Fatalf("expected a timeout")
	}
	select {
	case <-stopped:
	default:
		t.Fatalf("expected the stuck game to be stopped")
	}
}

func TestBackendErrorsAreReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "busy"})
	}))
	defer server.Close()
	client := newBackendClient(server.URL, time.Millisecond)
	if err := client.ping(context.Background()); err == nil {
		t.Fatalf("expected a non-200 answer to fail")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := client.waitReady(ctx, time.Second); err == nil {
		t.Fatalf("expected waitReady to give up")
	}
}

func TestParseSearch(t *testing.T) {
	t.Setenv("ARENA_A", `{"algorithm": "minimax", "depth": -1}`)
	search, err := parseSearch("ARENA_A", searchConfig{Algorithm: "alphabeta", Depth: 4, Ordering: true})
	if err != nil {
		t.Fatalf("parseSearch: %v", err)
	}
	if search.Algorithm != "minimax" || search.Depth != -1 || !search.Ordering {
		t.Fatalf("expected overrides on top of the fallback, got %+v", search)
	}
	t.Setenv("ARENA_A", `{"depth": "deep"}`)
	if _, err := parseSearch("ARENA_A", searchConfig{}); err == nil {
		t.Fatalf("expected malformed JSON to be rejected")
	}
}

func TestStatusRouter(t *testing.T) {
	a := &arena{status: arenaStatus{Phase: "idle", GamesTotal: 3}}
	server := httptest.NewServer(newStatusRouter(a))
	defer server.Close()
	resp, err := http.Get(server.URL + "/api/arena/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var status arenaStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Phase != "idle" || status.GamesTotal != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
}
