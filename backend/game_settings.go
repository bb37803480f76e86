package main

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
)

type GameSettings struct {
	BoardSize    int          `json:"board_size"`
	DarkType     PlayerType   `json:"-"`
	LightType    PlayerType   `json:"-"`
	DarkSearch   SearchConfig `json:"dark_search"`
	LightSearch  SearchConfig `json:"light_search"`
	OpeningPlies int          `json:"opening_plies"`
	Seed         uint64       `json:"seed"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		BoardSize:   8,
		DarkType:    PlayerAI,
		LightType:   PlayerAI,
		DarkSearch:  DefaultSearchConfig(),
		LightSearch: DefaultSearchConfig(),
	}
}

func (s GameSettings) searchFor(player PlayerColor) SearchConfig {
	if player == PlayerDark {
		return s.DarkSearch
	}
	return s.LightSearch
}

func (s GameSettings) typeFor(player PlayerColor) PlayerType {
	if player == PlayerDark {
		return s.DarkType
	}
	return s.LightType
}
