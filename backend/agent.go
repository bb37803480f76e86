package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AgentSettings is the decoded configuration line of the game manager.
type AgentSettings struct {
	Color  PlayerColor
	Search SearchConfig
}

// Agent speaks the game manager's line protocol. stdout carries protocol
// lines only; every diagnostic goes through the logger.
type Agent struct {
	name     string
	selector *MoveSelector
	in       *bufio.Scanner
	out      io.Writer
	logStats bool
}

func NewAgent(name string, selector *MoveSelector, in io.Reader, out io.Writer) *Agent {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Agent{name: name, selector: selector, in: scanner, out: out}
}

// Run plays until FINAL or end of input.
func (a *Agent) Run() error {
	if _, err := fmt.Fprintln(a.out, a.name); err != nil {
		return errors.Wrap(err, "write name")
	}
	line, ok, err := a.readLine()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("input closed before the configuration line")
	}
	settings, err := ParseAgentSettings(line)
	if err != nil {
		return err
	}
	logAgentSettings(settings)

	for turn := 1; ; turn++ {
		line, ok, err := a.readLine()
		if err != nil {
			return err
		}
		if !ok {
			log.Info().Msg("[agent] input closed")
			return nil
		}
		final, dark, light, err := ParseStatusLine(line)
		if err != nil {
			return err
		}
		if final {
			log.Info().Int("dark", dark).Int("light", light).Msg("[agent] final score")
			return nil
		}
		line, ok, err = a.readLine()
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("input closed before the board of turn %d", turn)
		}
		board, err := ParseBoardLine(line)
		if err != nil {
			return err
		}
		decision, err := a.selector.Decide(board, settings.Color, settings.Search)
		if err != nil {
			return errors.Wrapf(err, "turn %d", turn)
		}
		if a.logStats {
			logSearchStats("agent", decision, a.selector.Cache().Count())
		}
		log.Debug().
			Int("turn", turn).
			Int("dark", dark).
			Int("light", light).
			Str("move", decision.Move.String()).
			Float64("utility", decision.Utility).
			Int64("nodes", decision.Stats.Nodes).
			Msg("[agent] move selected")
		if _, err := fmt.Fprintln(a.out, FormatMove(decision.Move)); err != nil {
			return errors.Wrap(err, "write move")
		}
	}
}

func (a *Agent) readLine() (string, bool, error) {
	for a.in.Scan() {
		line := strings.TrimSpace(a.in.Text())
		if line != "" {
			return line, true, nil
		}
	}
	if err := a.in.Err(); err != nil {
		return "", false, errors.Wrap(err, "read input")
	}
	return "", false, nil
}

// ParseAgentSettings decodes "color,depth_limit,algorithm,caching,ordering".
func ParseAgentSettings(line string) (AgentSettings, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return AgentSettings{}, errors.Errorf("config line %q: want 5 fields, got %d", line, len(parts))
	}
	values := make([]int, len(parts))
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return AgentSettings{}, errors.Wrapf(err, "config line %q: field %d", line, i+1)
		}
		values[i] = value
	}
	color, err := playerFromInt(values[0])
	if err != nil {
		return AgentSettings{}, errors.Wrapf(err, "config line %q", line)
	}
	for i, name := range []string{"caching", "ordering"} {
		if v := values[3+i]; v != 0 && v != 1 {
			return AgentSettings{}, errors.Errorf("config line %q: %s must be 0 or 1, got %d", line, name, v)
		}
	}
	return AgentSettings{
		Color: color,
		Search: SearchConfig{
			Algorithm: AlgorithmFromInt(values[2]),
			Depth:     DepthFromInt(values[1]),
			Caching:   values[3] == 1,
			Ordering:  values[4] == 1,
		},
	}, nil
}

// ParseStatusLine decodes "SCORE <dark> <light>" or "FINAL <dark> <light>".
func ParseStatusLine(line string) (final bool, dark, light int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return false, 0, 0, errors.Errorf("status line %q: want 3 fields", line)
	}
	switch fields[0] {
	case "SCORE":
	case "FINAL":
		final = true
	default:
		return false, 0, 0, errors.Errorf("status line %q: unknown status %q", line, fields[0])
	}
	if dark, err = strconv.Atoi(fields[1]); err != nil {
		return false, 0, 0, errors.Wrapf(err, "status line %q: dark score", line)
	}
	if light, err = strconv.Atoi(fields[2]); err != nil {
		return false, 0, 0, errors.Wrapf(err, "status line %q: light score", line)
	}
	return final, dark, light, nil
}

// ParseBoardLine decodes a list of rows such as "[[0, 1], [2, 0]]". Tuple
// brackets are accepted too.
func ParseBoardLine(line string) (Board, error) {
	normalized := strings.NewReplacer("(", "[", ")", "]").Replace(line)
	var rows [][]int
	if err := json.Unmarshal([]byte(normalized), &rows); err != nil {
		return Board{}, errors.Wrap(err, "board line")
	}
	board, err := BoardFromRows(rows)
	if err != nil {
		return Board{}, errors.Wrap(err, "board line")
	}
	return board, nil
}

// FormatMove renders the "<column> <row>" reply.
func FormatMove(move Move) string {
	return fmt.Sprintf("%d %d", move.X, move.Y)
}

func logAgentSettings(settings AgentSettings) {
	search := settings.Search
	event := log.Info().
		Str("color", settings.Color.String()).
		Str("algorithm", search.Algorithm.String()).
		Bool("caching", search.Caching).
		Bool("ordering", search.Ordering).
		Str("depth", search.Depth.String())
	event.Msg("[agent] configured")
	if search.Algorithm == AlgorithmMinimax && search.Ordering {
		log.Warn().Msg("[agent] node ordering has no effect on minimax")
	}
}
