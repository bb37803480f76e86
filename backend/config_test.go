package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigLayersFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"agent_name": "Edax Jr", "ai_depth": 6, "ai_algorithm": "minimax", "heuristics": {"corner": 30}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OTHELLO_DEPTH", "3")
	t.Setenv("OTHELLO_CACHE_POLICY", "bounded")
	t.Setenv("OTHELLO_CACHING", "true")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.AgentName != "Edax Jr" || config.AiAlgorithm != AlgorithmMinimax {
		t.Fatalf("file values not applied: %+v", config)
	}
	if config.AiDepth != 3 || config.AiCachePolicy != CachePolicyBounded || !config.AiCaching {
		t.Fatalf("environment overrides not applied: %+v", config)
	}
	if config.Heuristics.Corner != 30 || config.Heuristics.Edge != DefaultConfig().Heuristics.Edge {
		t.Fatalf("partial heuristics must keep the remaining defaults: %+v", config.Heuristics)
	}
	search := config.DefaultSearch()
	if search.Depth != Plies(3) || search.Algorithm != AlgorithmMinimax || !search.Caching {
		t.Fatalf("unexpected default search %+v", search)
	}
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("OTHELLO_ALGORITHM", "1")
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.AiAlgorithm != AlgorithmMinimax {
		t.Fatalf("expected OTHELLO_ALGORITHM=1 to select minimax")
	}
	t.Setenv("OTHELLO_ALGORITHM", "mcts")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected an unknown algorithm to be rejected")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected a missing file to fail")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"ai_evaluator": "neural"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation to reject an unknown evaluator")
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	config.AiCachePolicy = "lru"
	if err := config.Validate(); err == nil {
		t.Fatalf("expected an unknown cache policy to fail")
	}
	config = DefaultConfig()
	config.AiMoveDelayMs = -1
	if err := config.Validate(); err == nil {
		t.Fatalf("expected a negative delay to fail")
	}
}

func TestConfigStoreUpdate(t *testing.T) {
	store := &ConfigStore{config: DefaultConfig()}
	next := store.Get()
	next.AiDepth = 9
	if store.Get().AiDepth == 9 {
		t.Fatalf("Get must return a copy")
	}
	store.Update(next)
	if store.Get().AiDepth != 9 {
		t.Fatalf("expected the update to be visible")
	}
}
