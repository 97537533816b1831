package engine

import "math/rand/v2"

// Scatter picks a spawn point fully outside the board.
//
// One of the four sides is chosen uniformly. The coordinate across that side
// sits pieceSize/2+margin beyond the board edge; the coordinate along it is
// uniform over the span that keeps the piece within the board's extent.
func Scatter(rng *rand.Rand, board Board, pieceSize, margin float64) Vec2 {
	half := board.Half()
	halfPiece := pieceSize / 2
	reach := half + halfPiece + margin

	along := func(center float64) float64 {
		lo := center - half + halfPiece
		hi := center + half - halfPiece
		return lo + rng.Float64()*(hi-lo)
	}

	if rng.Float64() < 0.5 {
		// left or right
		x := board.Center.X + reach
		if rng.Float64() < 0.5 {
			x = board.Center.X - reach
		}
		return Vec2{X: x, Y: along(board.Center.Y)}
	}

	// bottom or top
	y := board.Center.Y + reach
	if rng.Float64() < 0.5 {
		y = board.Center.Y - reach
	}
	return Vec2{X: along(board.Center.X), Y: y}
}

// SlotCenter returns the world position of grid cell (row, col), row 0 being
// the bottom row
func SlotCenter(board Board, cols, rows, row, col int) Vec2 {
	cellW := board.Size / float64(cols)
	cellH := board.Size / float64(rows)
	return Vec2{
		X: board.Center.X - board.Half() + (float64(col)+0.5)*cellW,
		Y: board.Center.Y - board.Half() + (float64(row)+0.5)*cellH,
	}
}

// NewRand returns a deterministic random source for seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
