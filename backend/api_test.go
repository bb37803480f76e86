package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*httptest.Server, *GameController) {
	t.Helper()
	server, controller, _ := newTestServerWithAnalitics(t)
	return server, controller
}

func newTestServerWithAnalitics(t *testing.T) (*httptest.Server, *GameController, *AnaliticsHub) {
	t.Helper()
	settings := DefaultGameSettings()
	settings.DarkType = PlayerHuman
	settings.LightType = PlayerHuman
	controller := NewGameController(settings)
	analitics := NewAnaliticsHub()
	controller.SetDecisionSink(analitics.Record)
	server := httptest.NewServer(newRouter(controller, NewHub(), NewGhostHub(time.Millisecond), analitics))
	t.Cleanup(func() {
		server.Close()
		controller.Stop()
	})
	return server, controller, analitics
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSelectEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	depth := 1
	caching := true
	resp := postJSON(t, server.URL+"/api/select", map[string]any{
		"board":         NewStartingBoard(8).Rows(),
		"color":         1,
		"depth_limit":   depth,
		"algorithm":     "minimax",
		"caching":       caching,
		"cache_entries": 3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var decoded selectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Move != (Move{X: 2, Y: 3}) || decoded.Utility != 3 {
		t.Fatalf("unexpected decision %+v", decoded)
	}
	if decoded.Search.Depth != Plies(1) || decoded.Search.Algorithm != AlgorithmMinimax {
		t.Fatalf("request overrides not applied: %+v", decoded.Search)
	}
	if decoded.Stats.RootMoves != 4 || decoded.BoardHash == "" {
		t.Fatalf("expected stats and board hash, got %+v", decoded)
	}
	if decoded.CacheSize == 0 || len(decoded.CacheEntries) == 0 {
		t.Fatalf("expected cache entries to be reported")
	}
}

func TestSelectEndpointUnlimitedDepth(t *testing.T) {
	server, _ := newTestServer(t)
	rows := [][]int{
		{1, 1, 1, 1},
		{1, 2, 2, 0},
		{1, 2, 2, 2},
		{1, 1, 1, 1},
	}
	resp := postJSON(t, server.URL+"/api/select", map[string]any{"board": rows, "color": 1, "depth_limit": -1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var decoded selectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Move != (Move{X: 3, Y: 1}) || decoded.Utility != 14 || decoded.Search.Depth.Int() != -1 {
		t.Fatalf("unexpected endgame decision %+v", decoded)
	}
}

func TestSelectEndpointErrors(t *testing.T) {
	server, _ := newTestServer(t)
	stuck := NewBoard(4)
	stuck.Set(0, 0, CellLight)
	stuck.Set(1, 0, CellDark)

	cases := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{"no legal move", map[string]any{"board": stuck.Rows(), "color": 1}, http.StatusConflict},
		{"bad color", map[string]any{"board": NewStartingBoard(4).Rows(), "color": 3}, http.StatusBadRequest},
		{"bad board", map[string]any{"board": [][]int{{0}}, "color": 1}, http.StatusBadRequest},
		{"bad algorithm", map[string]any{"board": NewStartingBoard(4).Rows(), "color": 1, "algorithm": "mcts"}, http.StatusBadRequest},
	}
	for _, c := range cases {
		resp := postJSON(t, server.URL+"/api/select", c.payload)
		if resp.StatusCode != c.status {
			t.Fatalf("%s: expected %d, got %d", c.name, c.status, resp.StatusCode)
		}
	}
}

func TestPingAndStatus(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/api/ping")
	if err != nil {
		t.Fatalf("GET ping: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from ping, got %d", resp.StatusCode)
	}

	resp = postJSON(t, server.URL+"/api/start", map[string]any{"size": 6, "dark_human": true, "light_human": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from start, got %d", resp.StatusCode)
	}
	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.BoardSize != 6 || status.Status != StatusRunning.String() || len(status.LegalMoves) != 4 {
		t.Fatalf("unexpected status after start: %+v", status)
	}

	resp = postJSON(t, server.URL+"/api/move", status.LegalMoves[0])
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the human move to be applied, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.NextPlayer != int(PlayerLight) || len(status.History) != 1 {
		t.Fatalf("unexpected status after a move: %+v", status)
	}

	resp = postJSON(t, server.URL+"/api/move", Move{X: 0, Y: 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected an illegal move to be rejected, got %d", resp.StatusCode)
	}
}

func TestStartRejectsOddBoards(t *testing.T) {
	server, _ := newTestServer(t)
	resp := postJSON(t, server.URL+"/api/start", map[string]any{"size": 7})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an odd board, got %d", resp.StatusCode)
	}
}

func TestConfigEndpointValidates(t *testing.T) {
	previous := GetConfig()
	t.Cleanup(func() { configStore.Update(previous) })
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/config", map[string]any{"ai_evaluator": "neural"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown evaluator, got %d", resp.StatusCode)
	}
	if GetConfig().AiEvaluator != previous.AiEvaluator {
		t.Fatalf("a rejected config must not be stored")
	}

	resp = postJSON(t, server.URL+"/api/config", map[string]any{"ai_evaluator": "positional", "ai_depth": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if GetConfig().AiEvaluator != EvaluatorPositional || GetConfig().AiDepth != 2 {
		t.Fatalf("config update not stored")
	}
}

func TestAnaliticsRecordsEngineDecisions(t *testing.T) {
	server, controller, _ := newTestServerWithAnalitics(t)
	resp := postJSON(t, server.URL+"/api/start", map[string]any{
		"size":  4,
		"dark":  map[string]any{"algorithm": "alphabeta", "depth": 2, "ordering": true},
		"light": map[string]any{"algorithm": "minimax", "depth": -1},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from start, got %d", resp.StatusCode)
	}
	deadline := time.Now().Add(5 * time.Second)
	for controller.State().Status == StatusRunning {
		if time.Now().After(deadline) {
			t.Fatalf("match did not finish in time")
		}
		controller.Tick()
		time.Sleep(time.Millisecond)
	}

	got, err := http.Get(server.URL + "/api/analitics?limit=3")
	if err != nil {
		t.Fatalf("GET analitics: %v", err)
	}
	defer got.Body.Close()
	var decoded analiticsResponse
	if err := json.NewDecoder(got.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode analitics: %v", err)
	}
	if decoded.Total == 0 || len(decoded.Decisions) == 0 || len(decoded.Decisions) > 3 {
		t.Fatalf("unexpected analitics %+v", decoded)
	}
	for i := 1; i < len(decoded.Decisions); i++ {
		if decoded.Decisions[i-1].Nodes < decoded.Decisions[i].Nodes {
			t.Fatalf("decisions must be sorted by nodes: %+v", decoded.Decisions)
		}
	}
	for _, decision := range decoded.Decisions {
		if decision.Player == int(PlayerLight) && decision.Depth != -1 {
			t.Fatalf("light searched without a depth limit, got %d", decision.Depth)
		}
	}
}
