package main

import (
	"math"
	"testing"
)

func TestUpdateEloIsZeroSum(t *testing.T) {
	a := contender{ID: "A", Elo: 1600}
	b := contender{ID: "B", Elo: 1400}
	updateElo(&a, &b, 1.0, 20)
	if math.Abs((a.Elo+b.Elo)-3000) > 1e-9 {
		t.Fatalf("rating points must be conserved, got %f + %f", a.Elo, b.Elo)
	}
	if a.Elo <= 1600 || a.Elo-1600 >= 10 {
		t.Fatalf("an expected win should gain less than half of K, got %f", a.Elo)
	}
}

func TestUpdateEloUpsetMovesMore(t *testing.T) {
	favorite := contender{Elo: 1600}
	underdog := contender{Elo: 1400}
	updateElo(&underdog, &favorite, 1.0, 20)
	if gain := underdog.Elo - 1400; gain <= 10 {
		t.Fatalf("an upset should gain more than half of K, got %f", gain)
	}
}

func TestScoreForDark(t *testing.T) {
	if scoreForDark(1) != 1 || scoreForDark(2) != 0 || scoreForDark(0) != 0.5 {
		t.Fatalf("unexpected winner mapping")
	}
}

func TestPerformanceDiff(t *testing.T) {
	if diff := performanceDiff(5, 10); diff != 0 {
		t.Fatalf("an even score means no gap, got %f", diff)
	}
	if diff := performanceDiff(0, 0); diff != 0 {
		t.Fatalf("no games means no gap, got %f", diff)
	}
	perfect := performanceDiff(10, 10)
	if math.IsInf(perfect, 0) || perfect <= 0 {
		t.Fatalf("a perfect score must give a finite positive gap, got %f", perfect)
	}
	if math.Abs(performanceDiff(0, 10)+perfect) > 1e-9 {
		t.Fatalf("a zero score must mirror a perfect one")
	}
	if performanceDiff(7, 10) <= performanceDiff(6, 10) {
		t.Fatalf("more points must mean a larger gap")
	}
}
