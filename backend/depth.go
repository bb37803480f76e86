package main

import "strconv"

// DepthLimit is the remaining ply budget of a node. The unlimited value is
// never decremented; only the absence of legal moves stops it.
type DepthLimit struct {
	plies     int
	unlimited bool
}

func UnlimitedDepth() DepthLimit {
	return DepthLimit{unlimited: true}
}

// Plies clamps negative budgets to zero.
func Plies(n int) DepthLimit {
	if n < 0 {
		n = 0
	}
	return DepthLimit{plies: n}
}

// DepthFromInt maps the external encoding: any negative value means unlimited.
func DepthFromInt(n int) DepthLimit {
	if n < 0 {
		return UnlimitedDepth()
	}
	return Plies(n)
}

func (d DepthLimit) Exhausted() bool {
	return !d.unlimited && d.plies <= 0
}

func (d DepthLimit) Next() DepthLimit {
	if d.unlimited {
		return d
	}
	return DepthLimit{plies: d.plies - 1}
}

func (d DepthLimit) IsUnlimited() bool {
	return d.unlimited
}

// Int is the inverse of DepthFromInt.
func (d DepthLimit) Int() int {
	if d.unlimited {
		return -1
	}
	return d.plies
}

func (d DepthLimit) String() string {
	if d.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(d.plies)
}
