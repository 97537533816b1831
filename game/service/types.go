package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidPointerEvent = errors.New("invalid pointer event")
	ErrConfigNotFound      = errors.New("configuration not found")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

// Pointer event names
const (
	PointerDown = "down"
	PointerMove = "move"
	PointerUp   = "up"
)

// Event types reported in action results
const (
	EventPieceShown    = "piece_shown"
	EventPieceMoved    = "piece_moved"
	EventPieceHidden   = "piece_hidden"
	EventLevelLabel    = "level_label"
	EventLevelComplete = "level_complete"
	EventPiecePlaced   = "piece_placed"
	EventRetry         = "retry"
	EventNextLevel     = "next_level"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	PuzzleState    *engine.PuzzleState `json:"puzzle_state"`
	LevelPack      *engine.LevelPack   `json:"level_pack"`
}

// PointerInput is one pointer event aimed at a piece, in world coordinates.
// X and Y are ignored for "up".
type PointerInput struct {
	PieceID int     `json:"piece_id"`
	Event   string  `json:"event"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// ActionResult contains the result of a session action
type ActionResult struct {
	Success     bool                `json:"success"`
	PuzzleState *engine.PuzzleState `json:"puzzle_state"`
	Message     string              `json:"message"`
	Events      []GameEvent         `json:"events,omitempty"`
	Placed      bool                `json:"placed,omitempty"`
	Complete    bool                `json:"complete"`
}

// GameEvent represents something a display would have shown
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	PieceID   *int         `json:"piece_id,omitempty"`
	Position  *engine.Vec2 `json:"position,omitempty"`
}

// ConfigInfo provides information about a level pack
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Cols        int    `json:"cols"`
	Rows        int    `json:"rows"`
	Levels      int    `json:"levels"`
}
