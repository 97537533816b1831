package partition

import (
	"fmt"
	"image"
)

// CropOffset returns the side of the centered square CropToSquare keeps from
// a width×height image and that square's top-left corner in pixel space.
// Centering is measured from the bottom-left, so an odd vertical surplus
// leaves the extra pixel row at the top.
func CropOffset(width, height int) (size int, offset image.Point) {
	size = min(width, height)
	offset.X = (width - size) / 2
	offset.Y = height - size - (height-size)/2
	return size, offset
}

// CropToSquare returns the largest centered square of img as a new image.
// A square input yields an identical copy.
func CropToSquare(img *Image) (*Image, error) {
	if err := img.checkReadable(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	size, offset := CropOffset(b.Dx(), b.Dy())

	r := image.Rect(0, 0, size, size).Add(b.Min).Add(offset)
	return &Image{
		Name:     img.Name,
		Format:   img.Format,
		Readable: true,
		Pixels:   copyRegion(img.Pixels, r),
	}, nil
}

// Slice divides img into cols×rows tiles of width/cols by height/rows pixels.
// Tiles are laid out from the bottom-left corner, so leftover pixels on the
// right and top edges are dropped. Slice never crops,
// so non-square inputs produce non-square tiles.
func Slice(img *Image, cols, rows int) ([]Tile, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: grid must be positive, got %dx%d", ErrInvalidArgument, cols, rows)
	}
	if err := img.checkReadable(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	pieceWidth := b.Dx() / cols
	pieceHeight := b.Dy() / rows
	if pieceWidth == 0 || pieceHeight == 0 {
		return nil, fmt.Errorf("%w: %dx%d grid does not fit a %dx%d image",
			ErrInvalidArgument, cols, rows, b.Dx(), b.Dy())
	}

	tiles := make([]Tile, 0, cols*rows)
	for row := rows - 1; row >= 0; row-- {
		// Board rows count from the bottom; pixel rows count from the top.
		py := b.Max.Y - (row+1)*pieceHeight
		for col := 0; col < cols; col++ {
			px := b.Min.X + col*pieceWidth
			r := image.Rect(px, py, px+pieceWidth, py+pieceHeight)
			tiles = append(tiles, Tile{
				Row: row,
				Col: col,
				Image: &Image{
					Name:     fmt.Sprintf("%s[%d,%d]", img.Name, row, col),
					Format:   img.Format,
					Readable: true,
					Pixels:   copyRegion(img.Pixels, r),
				},
			})
		}
	}

	return tiles, nil
}

// CropAndSlice crops img to a square and slices the square into tiles
func CropAndSlice(img *Image, cols, rows int) ([]Tile, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: grid must be positive, got %dx%d", ErrInvalidArgument, cols, rows)
	}
	square, err := CropToSquare(img)
	if err != nil {
		return nil, err
	}
	return Slice(square, cols, rows)
}

// Remainder reports how many pixel columns and rows Slice would drop for img
func Remainder(img *Image, cols, rows int) (int, int) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	b := img.Bounds()
	return b.Dx() % cols, b.Dy() % rows
}
