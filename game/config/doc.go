// Package config provides level pack management for the Tile Puzzle Game.
//
// The config package handles:
//   - Loading level packs from JSON or YAML files
//   - Pack defaults and validation
//   - Default pack selection and pack discovery
//   - Decoding and caching the level images a pack names
//   - Hot reload when pack or image files change on disk
//
// Pack Format:
//
// A level pack lists the ordered level images (paths relative to the config
// directory) and the board they are assembled on:
//
//	name: Landscapes
//	description: Three photos, 3x3
//	cols: 3
//	rows: 3
//	board_size: 5
//	snap_distance: 0.3
//	images:
//	  - images/lake.jpg
//	  - images/forest.png
//
// Omitted numeric fields take the engine defaults (3x3 grid, board size 5,
// snap distance 0.3, spawn margin 0.5).
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pack, err := manager.LoadConfig("landscapes")
//	if err != nil {
//		log.Fatal(err)
//	}
//	images := manager.LoadLevels(pack)
//
// Packs named "classic" are preferred as the default; otherwise the first
// valid pack in the directory is used.
package config
