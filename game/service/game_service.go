package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

// GameService defines all puzzle operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Puzzle Operations
	Pointer(ctx context.Context, sessionID string, input PointerInput) (*ActionResult, error)
	PlacePiece(ctx context.Context, sessionID string, pieceID int, x, y float64) (*ActionResult, error)
	RetryLevel(ctx context.Context, sessionID string) (*ActionResult, error)
	NextLevel(ctx context.Context, sessionID string) (*ActionResult, error)

	// Puzzle State
	GetPuzzleState(ctx context.Context, sessionID string) (*engine.PuzzleState, error)
	GetTile(ctx context.Context, sessionID string, pieceID int) (*partition.Tile, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.LevelPack, error)
	SaveConfig(ctx context.Context, configName string, pack *engine.LevelPack) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, pack *engine.LevelPack, levels []*partition.Image) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles level pack loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.LevelPack, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.LevelPack
	SaveConfig(name string, pack *engine.LevelPack) error
	LoadLevels(pack *engine.LevelPack) []*partition.Image
}

// Session represents an active puzzle session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.PuzzleSession
	Config         *engine.LevelPack
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
