package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type Config struct {
	AgentName         string          `json:"agent_name"`
	ListenAddr        string          `json:"listen_addr"`
	LogLevel          string          `json:"log_level"`
	GhostMode         bool            `json:"ghost_mode"`
	AiDepth           int             `json:"ai_depth"`
	AiAlgorithm       Algorithm       `json:"ai_algorithm"`
	AiCaching         bool            `json:"ai_caching"`
	AiOrdering        bool            `json:"ai_ordering"`
	AiEvaluator       string          `json:"ai_evaluator"`
	AiCachePolicy     CachePolicy     `json:"ai_cache_policy"`
	AiLogSearchStats  bool            `json:"ai_log_search_stats"`
	AiGhostThrottleMs int             `json:"ai_ghost_throttle_ms"`
	AiMoveDelayMs     int             `json:"ai_move_delay_ms"`
	Heuristics        HeuristicConfig `json:"heuristics"`
}

// HeuristicConfig weights the positional evaluator. Square weights apply per
// disc; Mobility applies per legal move of difference.
type HeuristicConfig struct {
	Corner   float64 `json:"corner"`
	XSquare  float64 `json:"x_square"`
	CSquare  float64 `json:"c_square"`
	Edge     float64 `json:"edge"`
	Inner    float64 `json:"inner"`
	Mobility float64 `json:"mobility"`
	Terminal float64 `json:"terminal"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

const (
	EvaluatorDisc       = "disc"
	EvaluatorPositional = "positional"
)

func DefaultConfig() Config {
	return Config{
		AgentName:  "Othello AI",
		ListenAddr: ":8080",
		LogLevel:   "info",
		GhostMode:  false,

		AiDepth:       4,
		AiAlgorithm:   AlgorithmAlphaBeta,
		AiCaching:     false,
		AiOrdering:    true,
		AiEvaluator:   EvaluatorDisc,
		AiCachePolicy: CachePolicyBoard,

		AiLogSearchStats:  false,
		AiGhostThrottleMs: 50,
		AiMoveDelayMs:     0,

		Heuristics: HeuristicConfig{
			Corner:   25.0,
			XSquare:  -12.0,
			CSquare:  -6.0,
			Edge:     4.0,
			Inner:    1.0,
			Mobility: 3.0,
			Terminal: 1000.0,
		},
	}
}

// LoadConfig layers an optional JSON file and OTHELLO_* environment variables
// over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, errors.Wrapf(err, "read config %s", path)
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return config, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := applyEnvOverrides(&config); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Config) Validate() error {
	switch c.AiEvaluator {
	case EvaluatorDisc, EvaluatorPositional:
	default:
		return errors.Errorf("unknown ai_evaluator %q", c.AiEvaluator)
	}
	switch c.AiCachePolicy {
	case CachePolicyBoard, CachePolicyBounded:
	default:
		return errors.Errorf("unknown ai_cache_policy %q", c.AiCachePolicy)
	}
	if c.AiAlgorithm != AlgorithmMinimax && c.AiAlgorithm != AlgorithmAlphaBeta {
		return errors.Errorf("unknown ai_algorithm %d", c.AiAlgorithm)
	}
	if c.AiGhostThrottleMs < 0 || c.AiMoveDelayMs < 0 {
		return errors.New("negative delays are not allowed")
	}
	return nil
}

// DefaultSearch is the search used by serve mode when a request leaves it out.
func (c Config) DefaultSearch() SearchConfig {
	return SearchConfig{
		Algorithm: c.AiAlgorithm,
		Depth:     DepthFromInt(c.AiDepth),
		Caching:   c.AiCaching,
		Ordering:  c.AiOrdering,
	}
}

func applyEnvOverrides(config *Config) error {
	config.AgentName = getenv("OTHELLO_AGENT_NAME", config.AgentName)
	config.ListenAddr = getenv("OTHELLO_LISTEN_ADDR", config.ListenAddr)
	config.LogLevel = getenv("OTHELLO_LOG_LEVEL", config.LogLevel)
	config.AiEvaluator = getenv("OTHELLO_EVALUATOR", config.AiEvaluator)
	config.AiCachePolicy = CachePolicy(getenv("OTHELLO_CACHE_POLICY", string(config.AiCachePolicy)))
	config.AiDepth = getenvInt("OTHELLO_DEPTH", config.AiDepth)
	config.AiGhostThrottleMs = getenvInt("OTHELLO_GHOST_THROTTLE_MS", config.AiGhostThrottleMs)
	config.GhostMode = getenvBool("OTHELLO_GHOST_MODE", config.GhostMode)
	config.AiCaching = getenvBool("OTHELLO_CACHING", config.AiCaching)
	config.AiOrdering = getenvBool("OTHELLO_ORDERING", config.AiOrdering)
	config.AiLogSearchStats = getenvBool("OTHELLO_LOG_SEARCH_STATS", config.AiLogSearchStats)
	if raw := strings.TrimSpace(os.Getenv("OTHELLO_ALGORITHM")); raw != "" {
		if err := config.AiAlgorithm.UnmarshalText([]byte(raw)); err != nil {
			return errors.Wrap(err, "OTHELLO_ALGORITHM")
		}
	}
	return nil
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
