package main

import "github.com/pkg/errors"

// PlayerColor values match the protocol codes: 1 is dark (moves first), 2 is light.
type PlayerColor int

const (
	PlayerDark  PlayerColor = 1
	PlayerLight PlayerColor = 2
)

type IPlayer interface {
	IsHuman() bool
}

func otherPlayer(player PlayerColor) PlayerColor {
	if player == PlayerDark {
		return PlayerLight
	}
	return PlayerDark
}

func playerFromInt(value int) (PlayerColor, error) {
	switch value {
	case 1:
		return PlayerDark, nil
	case 2:
		return PlayerLight, nil
	default:
		return PlayerDark, errors.Errorf("unknown player color %d", value)
	}
}

func (p PlayerColor) String() string {
	if p == PlayerDark {
		return "dark"
	}
	return "light"
}
