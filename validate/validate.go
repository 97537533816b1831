// Command validate checks every level pack in a config directory. It checks:
//   - JSON or YAML structure and required fields
//   - Grid, slot, board and snap settings
//   - That every level image exists, decodes, and is large enough for the grid
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/tilepuzzle/game/config"
	"github.com/wricardo/mcp-training/tilepuzzle/game/levels"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds problems when Valid is false. Notes are informational.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// validateConfig loads one pack file and checks its settings and images.
// Image paths are resolved against the pack's directory.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	pack, err := config.DecodePack(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("%v", err)
		return result
	}

	result.note("✓ %s: %dx%d grid, %d slots, %d levels", pack.Name, pack.Cols, pack.Rows, pack.PieceSlots, len(pack.Images))
	if pack.PieceSlots < pack.Cols*pack.Rows {
		result.note("%d tiles per level will not be shown (piece_slots %d)", pack.Cols*pack.Rows-pack.PieceSlots, pack.PieceSlots)
	}
	if pack.SnapDistance >= pack.PieceSize()/2 {
		result.note("snap_distance %.2f reaches into neighbouring slots (piece size %.2f)", pack.SnapDistance, pack.PieceSize())
	}

	images := levels.LoadAll(filepath.Dir(filePath), pack.Images)
	for i, img := range images {
		validateImage(&result, pack.Images[i], img, pack.Cols, pack.Rows)
	}

	return result
}

func validateImage(result *ValidationResult, path string, img *partition.Image, cols, rows int) {
	if !img.Readable {
		result.fail("Level image %s is missing or unreadable", path)
		return
	}

	tiles, err := partition.CropAndSlice(img, cols, rows)
	if err != nil {
		result.fail("Level image %s (%dx%d) cannot be sliced %dx%d: %v", path, img.Width(), img.Height(), cols, rows, err)
		return
	}

	tile := tiles[0].Image
	result.note("✓ %s: %dx%d, tiles %dx%d px", path, img.Width(), img.Height(), tile.Width(), tile.Height())

	size := min(img.Width(), img.Height())
	if dx, dy := size%cols, size%rows; dx > 0 || dy > 0 {
		result.note("%s drops %d px right and %d px top", path, dx, dy)
	}
}

// packFiles lists the pack files in dir in name order
func packFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// run validates every pack in dir, writes a report to w and reports whether
// all packs are valid
func run(w io.Writer, dir string) (bool, error) {
	files, err := packFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no level packs found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+e)
			}
		}
		for _, n := range result.Notes {
			fmt.Fprintln(w, "  "+n)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All level packs are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some level packs have errors")
	}
	return allValid, nil
}

func main() {
	defaultDir := "configs"
	if env := os.Getenv("CONFIG_DIR"); env != "" {
		defaultDir = env
	}
	dir := flag.String("dir", defaultDir, "Directory containing level packs")
	flag.Parse()

	ok, err := run(os.Stdout, *dir)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
