// Command analyze reports how level images will be cut into tiles.
//
//	analyze analyze --config-dir configs
//	analyze slice --cols 3 --rows 3 --out tiles images/cat.png
//
// "analyze" prints, for every pack, each image's dimensions, the centered
// square crop, the tile size and the pixels dropped by integer division.
// "slice" writes the tiles of one image as numbered PNG files.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/tilepuzzle/game/config"
	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/levels"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "inspect how level images are cropped and sliced",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "summarize every level pack in a config directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config-dir",
						Value:   "configs",
						Usage:   "directory containing level packs",
						Sources: cli.EnvVars("CONFIG_DIR"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return analyzeDir(out, cmd.String("config-dir"))
				},
			},
			{
				Name:      "slice",
				Usage:     "crop an image to a square and write its tiles as PNG files",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "cols", Value: engine.DefaultCols, Usage: "grid columns"},
					&cli.IntFlag{Name: "rows", Value: engine.DefaultRows, Usage: "grid rows"},
					&cli.StringFlag{Name: "out", Value: "tiles", Usage: "output directory"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("slice: image path required")
					}
					files, err := sliceImage(path, cmd.Int("cols"), cmd.Int("rows"), cmd.String("out"))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Wrote %d tiles to %s\n", len(files), cmd.String("out"))
					return nil
				},
			},
		},
	}
}

// analyzeDir prints a report for every pack in dir
func analyzeDir(w io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(w, "No level packs found in %s\n", dir)
		return nil
	}

	for _, info := range infos {
		pack, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError: %v\n", info.Filename, err)
			continue
		}
		analyzePack(w, info.Filename, pack, manager.LoadLevels(pack))
	}
	return nil
}

// analyzePack prints crop and tile geometry for each level of a pack
func analyzePack(w io.Writer, filename string, pack *engine.LevelPack, images []*partition.Image) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filename)
	fmt.Fprintf(w, "Name: %s\n", pack.Name)
	fmt.Fprintf(w, "Grid: %dx%d, %d piece slots\n", pack.Cols, pack.Rows, pack.PieceSlots)
	fmt.Fprintf(w, "Board: size %.2f at (%.2f, %.2f), piece size %.3f, snap %.2f\n",
		pack.BoardSize, pack.BoardCenter.X, pack.BoardCenter.Y, pack.PieceSize(), pack.SnapDistance)

	tiles := pack.Cols * pack.Rows
	if pack.PieceSlots < tiles {
		fmt.Fprintf(w, "⚠️  Only %d of %d tiles will be shown\n", pack.PieceSlots, tiles)
	}

	unreadable := 0
	for i, img := range images {
		fmt.Fprintf(w, "\nLevel %d: %s\n", i+1, pack.Images[i])
		if !img.Readable {
			unreadable++
			fmt.Fprintln(w, "  ❌ unreadable")
			continue
		}

		width, height := img.Width(), img.Height()
		size, offset := partition.CropOffset(width, height)
		fmt.Fprintf(w, "  Format: %s, %dx%d\n", img.Format, width, height)
		fmt.Fprintf(w, "  Crop: %dx%d square at offset (%d, %d)\n",
			size, size, offset.X, offset.Y)

		tileW, tileH := size/pack.Cols, size/pack.Rows
		if tileW == 0 || tileH == 0 {
			fmt.Fprintf(w, "  ❌ too small for a %dx%d grid\n", pack.Cols, pack.Rows)
			continue
		}
		fmt.Fprintf(w, "  Tile: %dx%d px\n", tileW, tileH)

		square, err := partition.CropToSquare(img)
		if err != nil {
			fmt.Fprintf(w, "  ❌ %v\n", err)
			continue
		}
		if dx, dy := partition.Remainder(square, pack.Cols, pack.Rows); dx > 0 || dy > 0 {
			fmt.Fprintf(w, "  Dropped: %d px right, %d px top\n", dx, dy)
		}
	}

	fmt.Fprintf(w, "\nSummary: %d levels, %d unreadable\n", len(images), unreadable)
}

// sliceImage writes the tiles of the image at path into outDir and returns
// the written file paths in tile order.
func sliceImage(path string, cols, rows int, outDir string) ([]string, error) {
	img := levels.Load(path)
	tiles, err := partition.CropAndSlice(img, cols, rows)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	files := make([]string, 0, len(tiles))
	for i, tile := range tiles {
		name := filepath.Join(outDir, fmt.Sprintf("%s_%02d_r%dc%d.png", base, i, tile.Row, tile.Col))
		if err := writeTile(name, tile.Image); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

func writeTile(name string, img *partition.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := partition.EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}
