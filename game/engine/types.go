package engine

import "math"

const (
	DefaultCols         = 3
	DefaultRows         = 3
	DefaultBoardSize    = 5.0
	DefaultSnapDistance = 0.3
	DefaultSpawnMargin  = 0.5

	// Validation constants
	MinGridSize = 1
	MaxGridSize = 16
	MaxSlots    = MaxGridSize * MaxGridSize
)

// Vec2 is a point in world space (y-up)
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v+o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v-o
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// DistanceTo returns the Euclidean distance between v and o
func (v Vec2) DistanceTo(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Board is the square target area pieces are assembled on
type Board struct {
	Center Vec2    `json:"center"`
	Size   float64 `json:"size"`
}

// Half returns half the board side
func (b Board) Half() float64 {
	return b.Size / 2
}

// Contains reports whether p lies inside or on the edge of the board
func (b Board) Contains(p Vec2) bool {
	h := b.Half()
	return math.Abs(p.X-b.Center.X) <= h && math.Abs(p.Y-b.Center.Y) <= h
}

// PieceState is the serializable view of a piece
type PieceState struct {
	ID         int     `json:"id"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	Position   Vec2    `json:"position"`
	Target     Vec2    `json:"target"`
	Placed     bool    `json:"placed"`
	Active     bool    `json:"active"`
	Dragging   bool    `json:"dragging,omitempty"`
	Scale      float64 `json:"scale"`
	TileWidth  int     `json:"tile_width"`
	TileHeight int     `json:"tile_height"`
}

// PuzzleState represents the complete puzzle state
type PuzzleState struct {
	ConfigName   string       `json:"config_name"`
	Level        int          `json:"level"`
	LevelLabel   string       `json:"level_label"`
	LevelCount   int          `json:"level_count"`
	LevelImage   string       `json:"level_image"`
	Cols         int          `json:"cols"`
	Rows         int          `json:"rows"`
	Board        Board        `json:"board"`
	SnapDistance float64      `json:"snap_distance"`
	PlacedCount  int          `json:"placed_count"`
	TotalPieces  int          `json:"total_pieces"`
	Complete     bool         `json:"complete"`
	Pieces       []PieceState `json:"pieces"`
	// PendingLevel is the level index NextLevel moved to but could not start
	PendingLevel *int `json:"pending_level,omitempty"`
}

// Remaining returns the number of active pieces not yet placed
func (s *PuzzleState) Remaining() int {
	return s.TotalPieces - s.PlacedCount
}
