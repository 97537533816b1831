package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a display name
func (s *gameServiceImpl) getConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == sess.Config.Name {
				return cfg.ConfigID
			}
		}
	}
	if sess.Config.Name == "" {
		return "default"
	}
	return sess.Config.Name
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		PuzzleState:    sess.Engine.State(),
		LevelPack:      sess.Config,
	}
}

// getSession looks a session up and marks it as used
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a session and starts its first level
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pack *engine.LevelPack
	var err error
	if configName != "" {
		pack, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		pack = s.configs.GetDefault()
		if pack == nil {
			return nil, fmt.Errorf("%w: no default level pack", engine.ErrConfiguration)
		}
	}

	levels := s.configs.LoadLevels(pack)

	sess, err := s.sessions.Create("", pack, levels)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = configName

	if err := sess.Engine.StartLevel(); err != nil {
		_ = s.sessions.Delete(sess.ID)
		return nil, fmt.Errorf("failed to start level: %w", err)
	}

	log.Printf("[SESSION] created %s with pack %q (%d levels)", sess.ID, pack.Name, len(levels))
	return s.sessionInfo(sess), nil
}

// configError wraps a config load failure with the list of valid ids
func (s *gameServiceImpl) configError(configName string, err error) error {
	if !errors.Is(err, ErrConfigNotFound) {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
	}
	return fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// Pointer forwards one pointer event to a piece
func (s *gameServiceImpl) Pointer(ctx context.Context, sessionID string, input PointerInput) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	pointer := engine.Vec2{X: input.X, Y: input.Y}
	placed := false
	wasPlaced := isPlaced(sess, input.PieceID)

	events, err := record(sess.Engine, func() error {
		switch input.Event {
		case PointerDown:
			return sess.Engine.OnPointerDown(input.PieceID, pointer)
		case PointerMove:
			return sess.Engine.OnPointerMove(input.PieceID, pointer)
		case PointerUp:
			var upErr error
			placed, upErr = sess.Engine.OnPointerUp(input.PieceID)
			return upErr
		default:
			return fmt.Errorf("%w: %q (want down, move or up)", ErrInvalidPointerEvent, input.Event)
		}
	})
	if err != nil {
		return nil, err
	}

	result := s.actionResult(sess, events, placed, input.PieceID)
	switch {
	case wasPlaced:
		result.Success = false
		result.Placed = true
		result.Message = fmt.Sprintf("Piece %d is already placed", input.PieceID)
	case input.Event != PointerUp:
		result.Success = true
		result.Message = fmt.Sprintf("Pointer %s on piece %d", input.Event, input.PieceID)
	}
	return result, nil
}

// PlacePiece drags a piece to (x, y) and releases it there
func (s *gameServiceImpl) PlacePiece(ctx context.Context, sessionID string, pieceID int, x, y float64) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var placed bool
	wasPlaced := isPlaced(sess, pieceID)

	events, err := record(sess.Engine, func() error {
		var placeErr error
		placed, placeErr = sess.Engine.Place(pieceID, engine.Vec2{X: x, Y: y})
		return placeErr
	})
	if err != nil {
		return nil, err
	}

	result := s.actionResult(sess, events, placed && !wasPlaced, pieceID)
	if wasPlaced {
		result.Placed = true
		result.Message = fmt.Sprintf("Piece %d is already placed", pieceID)
	}
	return result, nil
}

func isPlaced(sess *Session, pieceID int) bool {
	pieces := sess.Engine.Pieces()
	return pieceID >= 0 && pieceID < len(pieces) && pieces[pieceID].IsPlaced()
}

// actionResult builds the result of a pointer action
func (s *gameServiceImpl) actionResult(sess *Session, events []GameEvent, placed bool, pieceID int) *ActionResult {
	state := sess.Engine.State()
	result := &ActionResult{
		Success:     true,
		PuzzleState: state,
		Events:      events,
		Placed:      placed,
		Complete:    state.Complete,
	}

	switch {
	case placed && state.Complete:
		result.Message = fmt.Sprintf("Piece %d placed. %s complete!", pieceID, state.LevelLabel)
	case placed:
		result.Message = fmt.Sprintf("Piece %d placed (%d/%d)", pieceID, state.PlacedCount, state.TotalPieces)
	default:
		result.Success = false
		result.Message = fmt.Sprintf("Piece %d not close enough to its slot", pieceID)
	}

	if placed {
		id := pieceID
		pos := sess.Engine.Pieces()[pieceID].Position()
		result.Events = append(result.Events, GameEvent{
			Type:      EventPiecePlaced,
			Message:   result.Message,
			Timestamp: time.Now(),
			PieceID:   &id,
			Position:  &pos,
		})
		log.Printf("[PLACE] %s piece=%d placed=%d/%d", sess.ID, pieceID, state.PlacedCount, state.TotalPieces)
		if state.Complete {
			log.Printf("[LEVEL] %s %s complete", sess.ID, state.LevelLabel)
		}
	}
	return result
}

// RetryLevel restarts the current level
func (s *gameServiceImpl) RetryLevel(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.levelAction(sessionID, EventRetry, func(eng *engine.PuzzleSession) error {
		return eng.RetryLevel()
	})
}

// NextLevel advances to the following level, wrapping after the last
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.levelAction(sessionID, EventNextLevel, func(eng *engine.PuzzleSession) error {
		return eng.NextLevel()
	})
}

func (s *gameServiceImpl) levelAction(sessionID, eventType string, fn func(*engine.PuzzleSession) error) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events, err := record(sess.Engine, func() error { return fn(sess.Engine) })
	if err != nil {
		return nil, fmt.Errorf("failed to start level: %w", err)
	}

	state := sess.Engine.State()
	message := fmt.Sprintf("%s started with %d pieces", state.LevelLabel, state.TotalPieces)
	events = append([]GameEvent{{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}}, events...)

	log.Printf("[LEVEL] %s %s (%s) image=%s pieces=%d", sess.ID, eventType, state.LevelLabel, state.LevelImage, state.TotalPieces)
	return &ActionResult{
		Success:     true,
		PuzzleState: state,
		Message:     message,
		Events:      events,
		Complete:    state.Complete,
	}, nil
}

// GetPuzzleState returns the current puzzle snapshot
func (s *gameServiceImpl) GetPuzzleState(ctx context.Context, sessionID string) (*engine.PuzzleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.State(), nil
}

// GetTile returns the tile shown by a piece
func (s *gameServiceImpl) GetTile(ctx context.Context, sessionID string, pieceID int) (*partition.Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Tile(pieceID)
}

// ListConfigs returns the available level packs
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a level pack by name
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelPack, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig stores a level pack
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, pack *engine.LevelPack) error {
	return s.configs.SaveConfig(configName, pack)
}
