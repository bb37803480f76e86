package main

import "math"

const initialElo = 1500.0

// contender is one engine configuration taking part in the series.
type contender struct {
	ID     string       `json:"id"`
	Search searchConfig `json:"search"`
	Elo    float64      `json:"elo"`
}

func expectedScore(rating, opponent float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponent-rating)/400.0))
}

func updateElo(a *contender, b *contender, resultForA float64, k float64) {
	expA := expectedScore(a.Elo, b.Elo)
	expB := expectedScore(b.Elo, a.Elo)
	a.Elo += k * (resultForA - expA)
	b.Elo += k * ((1.0 - resultForA) - expB)
}

// scoreForDark maps a backend winner code to the dark side's result.
func scoreForDark(winner int) float64 {
	switch winner {
	case 1:
		return 1.0
	case 2:
		return 0.0
	default:
		return 0.5
	}
}

// performanceDiff is the Elo gap implied by an average score. Perfect and
// zero scores are clamped to half a game so the estimate stays finite.
func performanceDiff(points float64, games int) float64 {
	if games == 0 {
		return 0
	}
	score := points / float64(games)
	floor := 0.5 / float64(games)
	score = math.Min(math.Max(score, floor), 1-floor)
	return -400.0 * math.Log10(1/score-1)
}
