package engine

import "github.com/wricardo/mcp-training/tilepuzzle/game/partition"

// Piece is the movable entity for a single tile.
//
// A piece is either Unplaced or Placed. Pointer input moves an unplaced piece;
// releasing it within snapDistance of its target snaps it onto the target and
// fires onPlaced exactly once. A placed piece ignores all input until the
// session resets it at the next level start.
type Piece struct {
	id           int
	tile         *partition.Tile
	position     Vec2
	target       Vec2
	scale        float64
	snapDistance float64

	placed   bool
	active   bool
	dragging bool
	offset   Vec2

	onPlaced func()
}

func newPiece(id int, snapDistance float64, onPlaced func()) *Piece {
	return &Piece{
		id:           id,
		snapDistance: snapDistance,
		onPlaced:     onPlaced,
	}
}

// reset rebinds the piece to a tile for a new level
func (p *Piece) reset(tile *partition.Tile, target, position Vec2, scale float64) {
	p.tile = tile
	p.target = target
	p.position = position
	p.scale = scale
	p.placed = false
	p.dragging = false
	p.offset = Vec2{}
}

func (p *Piece) deactivate() {
	p.active = false
	p.placed = false
	p.dragging = false
	p.tile = nil
}

// ID returns the piece index
func (p *Piece) ID() int { return p.id }

// Position returns the current world position
func (p *Piece) Position() Vec2 { return p.position }

// Target returns the slot center the piece snaps to
func (p *Piece) Target() Vec2 { return p.target }

// Tile returns the tile shown by the piece, nil when inactive
func (p *Piece) Tile() *partition.Tile { return p.tile }

// Scale returns the world-space side length of the piece
func (p *Piece) Scale() float64 { return p.scale }

// IsPlaced reports whether the piece has snapped onto its target
func (p *Piece) IsPlaced() bool { return p.placed }

// IsActive reports whether the piece takes part in the current level
func (p *Piece) IsActive() bool { return p.active }

// IsDragging reports whether a drag is in progress
func (p *Piece) IsDragging() bool { return p.dragging }

func (p *Piece) acceptsInput() bool {
	return p.active && !p.placed
}

// PointerDown starts a drag. It returns false when the input was ignored.
func (p *Piece) PointerDown(pointer Vec2) bool {
	if !p.acceptsInput() {
		return false
	}
	p.offset = p.position.Sub(pointer)
	p.dragging = true
	return true
}

// PointerMove follows the pointer while dragging, keeping the grab offset
func (p *Piece) PointerMove(pointer Vec2) bool {
	if !p.acceptsInput() || !p.dragging {
		return false
	}
	p.position = pointer.Add(p.offset)
	return true
}

// PointerUp ends the drag and runs the snap test. It returns true when this
// release placed the piece.
func (p *Piece) PointerUp() bool {
	if !p.acceptsInput() {
		return false
	}
	p.dragging = false

	if p.position.DistanceTo(p.target) > p.snapDistance {
		return false
	}

	p.position = p.target
	p.placed = true
	if p.onPlaced != nil {
		p.onPlaced()
	}
	return true
}

// State returns the serializable view of the piece
func (p *Piece) State() PieceState {
	s := PieceState{
		ID:       p.id,
		Position: p.position,
		Target:   p.target,
		Placed:   p.placed,
		Active:   p.active,
		Dragging: p.dragging,
		Scale:    p.scale,
	}
	if p.tile != nil {
		s.Row = p.tile.Row
		s.Col = p.tile.Col
		s.TileWidth = p.tile.Image.Width()
		s.TileHeight = p.tile.Image.Height()
	}
	return s
}
