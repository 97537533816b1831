// Package engine provides the core puzzle logic for the Tile Puzzle Game.
//
// The engine package implements the game mechanics including:
//   - Level start: crop, slice and hand one tile to each piece
//   - Scatter of pieces around (never over) the board
//   - Drag tracking and snap-to-target on release
//   - Placement counting and level completion
//   - Level pack validation and defaults
//
// Core Types:
//
// PuzzleSession owns the pieces of one puzzle and drives level changes.
// Piece is the movable entity for a single tile. LevelPack describes the
// ordered level images, the grid, and the board geometry, loaded from JSON or
// YAML files. Renderer is the sink that receives tiles and placements.
//
// Usage:
//
//	pack := &engine.LevelPack{Name: "demo", Images: []string{"a.png"}}
//	sess, err := engine.NewSession(pack, levels, engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := sess.StartLevel(); err != nil {
//		log.Fatal(err)
//	}
//
//	// Drag piece 0 onto its slot
//	placed, err := sess.Place(0, sess.Pieces()[0].Target())
//
// Coordinates:
//
// World space is continuous and y-up. The board is a square centered at
// Board.Center with side Board.Size. Slot (row 0, col 0) is the bottom-left
// cell of the board.
//
// Concurrency:
//
// A PuzzleSession is a single-actor state machine and is not safe for
// concurrent use. Callers serialize access (see the service package).
package engine
