package partition

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

var (
	ErrInvalidInput    = errors.New("invalid input image")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Image is a named pixel buffer. Pixels are never modified after construction.
type Image struct {
	Name     string      `json:"name"`
	Format   string      `json:"format"`
	Readable bool        `json:"readable"`
	Pixels   image.Image `json:"-"`
}

// Tile is one grid cell cut out of a square image
type Tile struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Image *Image `json:"image"`
}

// NewImage wraps decoded pixels. A nil buffer produces an unreadable image.
func NewImage(name, format string, pixels image.Image) *Image {
	return &Image{
		Name:     name,
		Format:   format,
		Readable: pixels != nil,
		Pixels:   pixels,
	}
}

// Unreadable returns a placeholder for an image whose pixels cannot be accessed
func Unreadable(name string) *Image {
	return &Image{Name: name}
}

// Bounds returns the pixel bounds, or an empty rectangle for unreadable images
func (img *Image) Bounds() image.Rectangle {
	if img == nil || img.Pixels == nil {
		return image.Rectangle{}
	}
	return img.Pixels.Bounds()
}

// Width returns the width in pixels
func (img *Image) Width() int {
	return img.Bounds().Dx()
}

// Height returns the height in pixels
func (img *Image) Height() int {
	return img.Bounds().Dy()
}

// checkReadable reports ErrInvalidInput when pixel data cannot be used
func (img *Image) checkReadable() error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrInvalidInput)
	}
	if !img.Readable || img.Pixels == nil {
		return fmt.Errorf("%w: %s is not readable", ErrInvalidInput, img.displayName())
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: %s has no pixels", ErrInvalidInput, img.displayName())
	}
	return nil
}

func (img *Image) displayName() string {
	if img.Name == "" {
		return "image"
	}
	return fmt.Sprintf("image %q", img.Name)
}

// copyRegion copies r out of src into a new buffer anchored at the origin
func copyRegion(src image.Image, r image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, src, r, draw.Src, nil)
	return dst
}

// EncodePNG writes the image as PNG
func EncodePNG(w io.Writer, img *Image) error {
	if err := img.checkReadable(); err != nil {
		return err
	}
	return png.Encode(w, img.Pixels)
}
