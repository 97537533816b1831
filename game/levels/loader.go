package levels

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

// SupportedExtensions lists the file extensions Load can decode
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImageFile reports whether path has a supported image extension
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decode reads an image from data. The image is named after name.
func Decode(name string, data []byte) (*partition.Image, error) {
	pixels, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return partition.NewImage(name, format, pixels), nil
}

// Load decodes the image at path. Read or decode failures are logged and
// yield an unreadable image named after the file.
func Load(path string) *partition.Image {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[LEVELS] cannot read %s: %v", path, err)
		return partition.Unreadable(name)
	}

	img, err := Decode(name, data)
	if err != nil {
		log.Printf("[LEVELS] %v", err)
		return partition.Unreadable(name)
	}
	return img
}

// LoadAll loads paths relative to baseDir, keeping their order. Absolute
// paths are used as given.
func LoadAll(baseDir string, paths []string) []*partition.Image {
	images := make([]*partition.Image, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		images = append(images, Load(p))
	}
	return images
}
