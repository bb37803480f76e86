package main

var directions = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// LegalMoves enumerates the squares where player may place a disc. Squares are
// visited column by column (x outer, y inner), the order the game manager uses.
func LegalMoves(board Board, player PlayerColor) []Move {
	size := board.Size()
	cell := CellFromPlayer(player)
	var moves []Move
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			if board.At(x, y) != CellEmpty {
				continue
			}
			if capturesAny(board, x, y, cell) {
				moves = append(moves, Move{X: x, Y: y})
			}
		}
	}
	return moves
}

func HasLegalMove(board Board, player PlayerColor) bool {
	size := board.Size()
	cell := CellFromPlayer(player)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			if board.At(x, y) == CellEmpty && capturesAny(board, x, y, cell) {
				return true
			}
		}
	}
	return false
}

// IsGameOver reports whether neither side has a legal move.
func IsGameOver(board Board) bool {
	return !HasLegalMove(board, PlayerDark) && !HasLegalMove(board, PlayerLight)
}

// ApplyMove returns the successor board. The move must come from LegalMoves.
func ApplyMove(board Board, player PlayerColor, move Move) Board {
	cell := CellFromPlayer(player)
	next := board
	next.Set(move.X, move.Y, cell)
	for _, d := range directions {
		n := runLength(board, move.X, move.Y, d[0], d[1], cell)
		for step := 1; step <= n; step++ {
			next.Set(move.X+d[0]*step, move.Y+d[1]*step, cell)
		}
	}
	return next
}

// Flips lists the discs that placing at move would turn over.
func Flips(board Board, player PlayerColor, move Move) []Move {
	if !board.IsEmpty(move.X, move.Y) {
		return nil
	}
	cell := CellFromPlayer(player)
	var flips []Move
	for _, d := range directions {
		n := runLength(board, move.X, move.Y, d[0], d[1], cell)
		for step := 1; step <= n; step++ {
			flips = append(flips, Move{X: move.X + d[0]*step, Y: move.Y + d[1]*step})
		}
	}
	return flips
}

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

func (r Rules) IsLegal(state GameState, move Move, player PlayerColor) (bool, string) {
	if !move.IsValid(state.Board.Size()) {
		return false, "out of bounds"
	}
	if player != state.ToMove {
		return false, "not your turn"
	}
	if !state.Board.IsEmpty(move.X, move.Y) {
		return false, "occupied"
	}
	if !capturesAny(state.Board, move.X, move.Y, CellFromPlayer(player)) {
		return false, "no discs flipped"
	}
	return true, ""
}

// Winner compares disc counts on a finished board.
func (r Rules) Winner(board Board) GameStatus {
	dark, light := board.DiscCounts()
	switch {
	case dark > light:
		return StatusDarkWon
	case light > dark:
		return StatusLightWon
	default:
		return StatusDraw
	}
}

func capturesAny(board Board, x, y int, cell Cell) bool {
	for _, d := range directions {
		if runLength(board, x, y, d[0], d[1], cell) > 0 {
			return true
		}
	}
	return false
}

// runLength counts opponent discs from (x,y) along (dx,dy) that are closed off
// by a disc of cell. Returns 0 when the run is not bracketed.
func runLength(board Board, x, y, dx, dy int, cell Cell) int {
	count := 0
	cx, cy := x+dx, y+dy
	for board.InBounds(cx, cy) {
		current := board.At(cx, cy)
		if current == CellEmpty {
			return 0
		}
		if current == cell {
			return count
		}
		count++
		cx += dx
		cy += dy
	}
	return 0
}
