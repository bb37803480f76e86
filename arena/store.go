package main

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// gameRecord is one finished arena game.
type gameRecord struct {
	RunID       string
	PlayedAt    time.Time
	Seed        uint64
	BoardSize   int
	DarkID      string
	LightID     string
	DarkSearch  searchConfig
	LightSearch searchConfig
	Winner      int
	DarkDiscs   int
	LightDiscs  int
	Moves       int
	Duration    time.Duration
}

// runSummary is the result of one run from the point of view of a contender.
type runSummary struct {
	Games  int     `json:"games"`
	Wins   int     `json:"wins"`
	Draws  int     `json:"draws"`
	Losses int     `json:"losses"`
	Points float64 `json:"points"`
}

type gameStore struct {
	db *sql.DB
}

func openGameStore(path string) (*gameStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			played_at TEXT NOT NULL,
			seed TEXT NOT NULL,
			board_size INTEGER NOT NULL,
			dark_id TEXT NOT NULL,
			light_id TEXT NOT NULL,
			dark_search TEXT NOT NULL,
			light_search TEXT NOT NULL,
			winner INTEGER NOT NULL,
			dark_discs INTEGER NOT NULL,
			light_discs INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL);`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create games table")
	}
	return &gameStore{db: db}, nil
}

func (s *gameStore) Close() error {
	return s.db.Close()
}

func (s *gameStore) RecordGame(record gameRecord) error {
	darkSearch, err := json.Marshal(record.DarkSearch)
	if err != nil {
		return errors.Wrap(err, "encode dark search")
	}
	lightSearch, err := json.Marshal(record.LightSearch)
	if err != nil {
		return errors.Wrap(err, "encode light search")
	}
	// sqlite integers are signed; seeds are stored as decimal text.
	_, err = s.db.Exec(`INSERT INTO games(run_id, played_at, seed, board_size, dark_id, light_id,
			dark_search, light_search, winner, dark_discs, light_discs, moves, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.PlayedAt.UTC().Format(time.RFC3339),
		strconv.FormatUint(record.Seed, 10),
		record.BoardSize,
		record.DarkID,
		record.LightID,
		string(darkSearch),
		string(lightSearch),
		record.Winner,
		record.DarkDiscs,
		record.LightDiscs,
		record.Moves,
		record.Duration.Milliseconds(),
	)
	return errors.Wrap(err, "insert game")
}

// Summary tallies the games of runID for contender id.
func (s *gameStore) Summary(runID, id string) (runSummary, error) {
	var summary runSummary
	err := s.db.QueryRow(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN (winner = 1 AND dark_id = ?) OR (winner = 2 AND light_id = ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner = 0 THEN 1 ELSE 0 END), 0)
			FROM games WHERE run_id = ? AND (dark_id = ? OR light_id = ?)`,
		id, id, runID, id, id,
	).Scan(&summary.Games, &summary.Wins, &summary.Draws)
	if err != nil {
		return runSummary{}, errors.Wrap(err, "summarize run")
	}
	summary.Losses = summary.Games - summary.Wins - summary.Draws
	summary.Points = float64(summary.Wins) + 0.5*float64(summary.Draws)
	return summary, nil
}

// Seeds lists the opening seeds used in runID, oldest first.
func (s *gameStore) Seeds(runID string) ([]uint64, error) {
	rows, err := s.db.Query(`SELECT seed FROM games WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query seeds")
	}
	defer rows.Close()
	var seeds []uint64
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan seed")
		}
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse seed %q", raw)
		}
		seeds = append(seeds, seed)
	}
	return seeds, errors.Wrap(rows.Err(), "iterate seeds")
}
