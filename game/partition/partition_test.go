package partition

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// gradientImage encodes each pixel's coordinates in its color so tests can
// tell exactly where a copied pixel came from.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestCropToSquare(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantSize      int
		wantOffset    image.Point
	}{
		{"already square", 6, 6, 6, image.Pt(0, 0)},
		{"landscape", 10, 6, 6, image.Pt(2, 0)},
		{"portrait even difference", 6, 10, 6, image.Pt(0, 2)},
		{"portrait odd difference", 6, 11, 6, image.Pt(0, 3)},
		{"landscape odd difference", 11, 6, 6, image.Pt(2, 0)},
		{"one pixel wider", 5, 4, 4, image.Pt(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := gradientImage(tt.width, tt.height)
			cropped, err := CropToSquare(NewImage("src", "png", src))
			if err != nil {
				t.Fatalf("CropToSquare failed: %v", err)
			}

			if cropped.Width() != tt.wantSize || cropped.Height() != tt.wantSize {
				t.Fatalf("Expected %dx%d, got %dx%d", tt.wantSize, tt.wantSize, cropped.Width(), cropped.Height())
			}
			if cropped.Format != "png" {
				t.Errorf("Expected format to be preserved, got %q", cropped.Format)
			}

			for y := 0; y < tt.wantSize; y++ {
				for x := 0; x < tt.wantSize; x++ {
					got := pixelAt(cropped.Pixels, x, y)
					want := pixelAt(src, x+tt.wantOffset.X, y+tt.wantOffset.Y)
					if got != want {
						t.Fatalf("Pixel (%d,%d): expected %v, got %v", x, y, want, got)
					}
				}
			}
		})
	}
}

func TestCropToSquare_NonZeroOrigin(t *testing.T) {
	full := gradientImage(12, 8)
	sub := full.SubImage(image.Rect(2, 1, 10, 5)) // 8x4, origin (2,1)

	cropped, err := CropToSquare(NewImage("sub", "png", sub))
	if err != nil {
		t.Fatalf("CropToSquare failed: %v", err)
	}
	if cropped.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("Expected bounds anchored at origin, got %v", cropped.Bounds())
	}

	// Offset is (8-4)/2 = 2 on x, relative to the sub-image origin.
	if got, want := pixelAt(cropped.Pixels, 0, 0), pixelAt(full, 4, 1); got != want {
		t.Errorf("Expected first pixel %v, got %v", want, got)
	}
}

func TestCropToSquare_Unreadable(t *testing.T) {
	tests := []struct {
		name string
		img  *Image
	}{
		{"nil image", nil},
		{"read protected", Unreadable("locked.png")},
		{"flag cleared", &Image{Name: "x", Pixels: gradientImage(2, 2)}},
		{"empty pixels", NewImage("empty", "png", image.NewNRGBA(image.Rect(0, 0, 0, 0)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropToSquare(tt.img)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSlice_EvenGrid(t *testing.T) {
	src := gradientImage(6, 6)
	tiles, err := Slice(NewImage("board", "png", src), 3, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	if len(tiles) != 9 {
		t.Fatalf("Expected 9 tiles, got %d", len(tiles))
	}

	// Top row first, left to right; rows count from the bottom.
	expectedOrder := []struct{ row, col int }{
		{2, 0}, {2, 1}, {2, 2},
		{1, 0}, {1, 1}, {1, 2},
		{0, 0}, {0, 1}, {0, 2},
	}
	for i, tile := range tiles {
		if tile.Row != expectedOrder[i].row || tile.Col != expectedOrder[i].col {
			t.Errorf("Tile %d: expected row %d col %d, got row %d col %d",
				i, expectedOrder[i].row, expectedOrder[i].col, tile.Row, tile.Col)
		}
		if tile.Image.Width() != 2 || tile.Image.Height() != 2 {
			t.Errorf("Tile %d: expected 2x2, got %dx%d", i, tile.Image.Width(), tile.Image.Height())
		}
	}

	// tile[0] is the top-left corner of the source
	if got, want := pixelAt(tiles[0].Image.Pixels, 0, 0), pixelAt(src, 0, 0); got != want {
		t.Errorf("Expected tile 0 to start at source (0,0): want %v, got %v", want, got)
	}
	// tile[8] is the bottom-right corner
	if got, want := pixelAt(tiles[8].Image.Pixels, 1, 1), pixelAt(src, 5, 5); got != want {
		t.Errorf("Expected tile 8 to end at source (5,5): want %v, got %v", want, got)
	}
}

func TestSlice_ReassemblesWithoutGapsOrOverlaps(t *testing.T) {
	grids := []struct{ w, h, cols, rows int }{
		{6, 6, 3, 3},
		{8, 8, 4, 2},
		{12, 12, 2, 6},
		{5, 5, 1, 1},
	}

	for _, g := range grids {
		src := gradientImage(g.w, g.h)
		tiles, err := Slice(NewImage("src", "png", src), g.cols, g.rows)
		if err != nil {
			t.Fatalf("Slice %dx%d failed: %v", g.cols, g.rows, err)
		}
		if len(tiles) != g.cols*g.rows {
			t.Fatalf("Expected %d tiles, got %d", g.cols*g.rows, len(tiles))
		}

		pw, ph := g.w/g.cols, g.h/g.rows
		covered := make(map[image.Point]int)
		for _, tile := range tiles {
			originX := tile.Col * pw
			originY := (g.rows - 1 - tile.Row) * ph
			for y := 0; y < ph; y++ {
				for x := 0; x < pw; x++ {
					p := image.Pt(originX+x, originY+y)
					covered[p]++
					if got, want := pixelAt(tile.Image.Pixels, x, y), pixelAt(src, p.X, p.Y); got != want {
						t.Fatalf("Grid %dx%d tile (%d,%d) pixel (%d,%d): want %v, got %v",
							g.cols, g.rows, tile.Row, tile.Col, x, y, want, got)
					}
				}
			}
		}

		if len(covered) != g.w*g.h {
			t.Errorf("Grid %dx%d: expected %d covered pixels, got %d", g.cols, g.rows, g.w*g.h, len(covered))
		}
		for p, n := range covered {
			if n != 1 {
				t.Errorf("Grid %dx%d: pixel %v covered %d times", g.cols, g.rows, p, n)
			}
		}
	}
}

// Remainder pixels are dropped on purpose; this pins that behavior.
func TestSlice_RemainderPixelsAreDroppedIntentionally(t *testing.T) {
	img := NewImage("odd", "png", gradientImage(7, 7))

	tiles, err := Slice(img, 3, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	for i, tile := range tiles {
		if tile.Image.Width() != 2 || tile.Image.Height() != 2 {
			t.Errorf("Tile %d: expected truncated 2x2 tile, got %dx%d", i, tile.Image.Width(), tile.Image.Height())
		}
	}

	dx, dy := Remainder(img, 3, 3)
	if dx != 1 || dy != 1 {
		t.Errorf("Expected remainder 1x1, got %dx%d", dx, dy)
	}

	// Tiles are anchored at the bottom-left, so the top-left tile starts one
	// pixel row down and the bottom-left tile ends on the last pixel row.
	if got, want := pixelAt(tiles[0].Image.Pixels, 0, 0), pixelAt(img.Pixels, 0, 1); got != want {
		t.Errorf("Expected top-left tile to start at source (0,1): want %v, got %v", want, got)
	}
	if got, want := pixelAt(tiles[6].Image.Pixels, 0, 1), pixelAt(img.Pixels, 0, 6); got != want {
		t.Errorf("Expected bottom-left tile to end at source (0,6): want %v, got %v", want, got)
	}

	// The last column and the top row of the source appear in no tile
	for _, tile := range tiles {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				c := pixelAt(tile.Image.Pixels, x, y)
				if c.R == 6 || c.G == 0 {
					t.Fatalf("Tile (%d,%d) contains a dropped pixel %v", tile.Row, tile.Col, c)
				}
			}
		}
	}
}

func TestSlice_NonSquareInputIsNotCropped(t *testing.T) {
	tiles, err := Slice(NewImage("wide", "png", gradientImage(6, 4)), 3, 2)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if len(tiles) != 6 {
		t.Fatalf("Expected 6 tiles, got %d", len(tiles))
	}
	if tiles[0].Image.Width() != 2 || tiles[0].Image.Height() != 2 {
		t.Errorf("Expected 2x2 tiles, got %dx%d", tiles[0].Image.Width(), tiles[0].Image.Height())
	}
}

func TestSlice_InvalidGrid(t *testing.T) {
	img := NewImage("src", "png", gradientImage(6, 6))

	tests := []struct {
		name       string
		cols, rows int
	}{
		{"zero cols", 0, 3},
		{"zero rows", 3, 0},
		{"negative cols", -1, 3},
		{"negative rows", 3, -2},
		{"grid larger than image", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Slice(img, tt.cols, tt.rows)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	if _, err := CropAndSlice(img, 0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected CropAndSlice to reject a 0x0 grid, got %v", err)
	}
}

func TestSlice_UnreadableInput(t *testing.T) {
	_, err := Slice(Unreadable("locked"), 3, 3)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSlice_TilesDoNotAliasSource(t *testing.T) {
	src := gradientImage(4, 4)
	tiles, err := Slice(NewImage("src", "png", src), 2, 2)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	before := pixelAt(tiles[0].Image.Pixels, 0, 0)
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	if after := pixelAt(tiles[0].Image.Pixels, 0, 0); after != before {
		t.Errorf("Expected tile to be independent of source, pixel changed from %v to %v", before, after)
	}
}

func TestSlice_Deterministic(t *testing.T) {
	img := NewImage("src", "png", gradientImage(9, 9))

	first, err := Slice(img, 3, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	second, err := Slice(img, 3, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	for i := range first {
		if first[i].Row != second[i].Row || first[i].Col != second[i].Col {
			t.Fatalf("Tile %d order differs between runs", i)
		}
		a := first[i].Image.Pixels.(*image.NRGBA)
		b := second[i].Image.Pixels.(*image.NRGBA)
		if !bytes.Equal(a.Pix, b.Pix) {
			t.Fatalf("Tile %d pixels differ between runs", i)
		}
	}
}

func TestCropAndSlice(t *testing.T) {
	src := gradientImage(12, 9)
	tiles, err := CropAndSlice(NewImage("photo", "jpeg", src), 3, 3)
	if err != nil {
		t.Fatalf("CropAndSlice failed: %v", err)
	}
	if len(tiles) != 9 {
		t.Fatalf("Expected 9 tiles, got %d", len(tiles))
	}
	// Crop offset is (12-9)/2 = 1 on x; first tile starts there.
	if got, want := pixelAt(tiles[0].Image.Pixels, 0, 0), pixelAt(src, 1, 0); got != want {
		t.Errorf("Expected first tile to start at crop offset: want %v, got %v", want, got)
	}
	if tiles[0].Image.Format != "jpeg" {
		t.Errorf("Expected format tag to follow tiles, got %q", tiles[0].Image.Format)
	}
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, NewImage("tile", "png", gradientImage(3, 2))); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 3 || decoded.Bounds().Dy() != 2 {
		t.Errorf("Expected 3x2 PNG, got %v", decoded.Bounds())
	}

	if err := EncodePNG(&buf, Unreadable("x")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unreadable image, got %v", err)
	}
}
