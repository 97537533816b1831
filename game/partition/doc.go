// Package partition turns level images into puzzle tiles.
//
// The partition package implements:
//   - Cropping a rectangular image to its centered square
//   - Slicing a square into cols×rows equally sized tiles
//   - Encoding tiles for transport (PNG)
//
// Tile Order:
//
// Tiles are produced top row first, left to right. Each Tile carries its
// Row and Col in board space, where Row 0 is the bottom row of the board
// (world space grows upward). The first tile is therefore Row rows-1, Col 0.
//
// Remainders:
//
// Tile sizes use integer division. When the grid does not divide the square
// evenly, the leftover pixels on the right and top edges are dropped, since
// tiles are laid out from the bottom-left corner.
// Remainder reports how many pixels a grid would drop.
//
// Usage:
//
//	square, err := partition.CropToSquare(img)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tiles, err := partition.Slice(square, 3, 3)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Every tile owns an independent copy of its pixels, so the source image can
// be discarded once slicing returns.
package partition
