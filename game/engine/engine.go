package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrPieceNotFound = errors.New("piece not found")
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Level lifecycle
	StartLevel() error
	RetryLevel() error
	NextLevel() error
	ReportPiecePlaced()

	// Input
	OnPointerDown(id int, pointer Vec2) error
	OnPointerMove(id int, pointer Vec2) error
	OnPointerUp(id int) (bool, error)
	Place(id int, position Vec2) (bool, error)

	// State
	State() *PuzzleState
	Pieces() []*Piece
	Tile(id int) (*partition.Tile, error)
	IsComplete() bool
	PlacedCount() int
	LevelIndex() int
	LevelLabel() string
	Pack() *LevelPack

	SetRenderer(r Renderer)
}

// PuzzleSession owns the pieces of one puzzle and counts placements
type PuzzleSession struct {
	pack   *LevelPack
	levels []*partition.Image

	pieces      []*Piece
	tiles       []partition.Tile
	levelIndex  int
	playing     int // level the pieces were dealt from, -1 before the first start
	placedCount int
	activeCount int
	complete    bool

	rng      *rand.Rand
	renderer Renderer
}

// Option configures a PuzzleSession
type Option func(*PuzzleSession)

// WithRand injects the random source used by Scatter
func WithRand(rng *rand.Rand) Option {
	return func(s *PuzzleSession) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithSeed makes scatter positions reproducible
func WithSeed(seed uint64) Option {
	return func(s *PuzzleSession) {
		s.rng = NewRand(seed)
	}
}

// WithRenderer sets the initial render sink
func WithRenderer(r Renderer) Option {
	return func(s *PuzzleSession) {
		s.SetRenderer(r)
	}
}

// NewSession creates a puzzle session for pack. The pack is copied and
// defaulted, so later edits by the caller have no effect. The level list may
// be empty; StartLevel reports that as a configuration error.
func NewSession(pack *LevelPack, levels []*partition.Image, opts ...Option) (*PuzzleSession, error) {
	if pack == nil {
		return nil, fmt.Errorf("%w: level pack is nil", ErrConfiguration)
	}
	p := *pack
	p.Images = append([]string(nil), pack.Images...)
	p.ApplyDefaults()
	if err := ValidateLevelPack(&p); err != nil {
		return nil, err
	}

	s := &PuzzleSession{
		pack:     &p,
		levels:   append([]*partition.Image(nil), levels...),
		playing:  -1,
		renderer: NopRenderer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s.pieces = make([]*Piece, p.PieceSlots)
	for i := range s.pieces {
		s.pieces[i] = newPiece(i, p.SnapDistance, s.ReportPiecePlaced)
	}

	return s, nil
}

// SetRenderer replaces the render sink. A nil renderer discards output.
func (s *PuzzleSession) SetRenderer(r Renderer) {
	if r == nil {
		r = NopRenderer{}
	}
	s.renderer = r
}

// StartLevel slices the current level image and scatters the pieces around
// the board. Nothing changes when the level cannot be prepared.
func (s *PuzzleSession) StartLevel() error {
	tiles, err := s.prepareLevel()
	if err != nil {
		return err
	}

	s.placedCount = 0
	s.complete = false
	s.renderer.SetLevelComplete(false)

	s.tiles = tiles
	board := s.pack.Board()
	pieceSize := s.pack.PieceSize()
	count := min(len(s.pieces), len(tiles))

	for i, piece := range s.pieces {
		if i >= count {
			if piece.active {
				s.renderer.HidePiece(i)
			}
			piece.deactivate()
			continue
		}

		tile := &s.tiles[i]
		target := SlotCenter(board, s.pack.Cols, s.pack.Rows, tile.Row, tile.Col)
		position := Scatter(s.rng, board, pieceSize, s.pack.SpawnMargin)
		piece.reset(tile, target, position, pieceSize)
		piece.active = true
		s.renderer.ShowPiece(i, tile, position, pieceSize)
	}
	s.activeCount = count
	s.playing = s.levelIndex

	s.renderer.SetLevelLabel(s.LevelLabel())
	return nil
}

func (s *PuzzleSession) prepareLevel() ([]partition.Tile, error) {
	if len(s.levels) == 0 {
		return nil, fmt.Errorf("%w: no level images assigned", ErrConfiguration)
	}
	if s.levelIndex < 0 || s.levelIndex >= len(s.levels) {
		return nil, fmt.Errorf("%w: level index %d out of range [0,%d)", ErrConfiguration, s.levelIndex, len(s.levels))
	}

	img := s.levels[s.levelIndex]
	if img == nil || !img.Readable {
		name := ""
		if img != nil {
			name = img.Name
		}
		return nil, fmt.Errorf("%w: level %d image %q is not readable", ErrConfiguration, s.levelIndex+1, name)
	}

	tiles, err := partition.CropAndSlice(img, s.pack.Cols, s.pack.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: level %d: %w", ErrConfiguration, s.levelIndex+1, err)
	}
	return tiles, nil
}

// RetryLevel restarts the current level
func (s *PuzzleSession) RetryLevel() error {
	return s.StartLevel()
}

// NextLevel advances to the following level, wrapping after the last one.
// The index stays advanced even when the new level fails to start.
func (s *PuzzleSession) NextLevel() error {
	if len(s.levels) == 0 {
		return fmt.Errorf("%w: no level images assigned", ErrConfiguration)
	}
	s.levelIndex++
	if s.levelIndex >= len(s.levels) {
		s.levelIndex = 0
	}
	return s.StartLevel()
}

// ReportPiecePlaced counts one placement and signals completion once every
// active piece is placed. Pieces call it at most once per level.
func (s *PuzzleSession) ReportPiecePlaced() {
	s.placedCount++
	if !s.complete && s.activeCount > 0 && s.placedCount >= s.activeCount {
		s.complete = true
		s.renderer.SetLevelComplete(true)
	}
}

func (s *PuzzleSession) piece(id int) (*Piece, error) {
	if id < 0 || id >= len(s.pieces) || !s.pieces[id].active {
		return nil, fmt.Errorf("%w: %d", ErrPieceNotFound, id)
	}
	return s.pieces[id], nil
}

// OnPointerDown starts dragging piece id
func (s *PuzzleSession) OnPointerDown(id int, pointer Vec2) error {
	p, err := s.piece(id)
	if err != nil {
		return err
	}
	p.PointerDown(pointer)
	return nil
}

// OnPointerMove drags piece id to follow the pointer
func (s *PuzzleSession) OnPointerMove(id int, pointer Vec2) error {
	p, err := s.piece(id)
	if err != nil {
		return err
	}
	if p.PointerMove(pointer) {
		s.renderer.MovePiece(id, p.Position())
	}
	return nil
}

// OnPointerUp releases piece id and reports whether it snapped into place
func (s *PuzzleSession) OnPointerUp(id int) (bool, error) {
	p, err := s.piece(id)
	if err != nil {
		return false, err
	}
	placed := p.PointerUp()
	if placed {
		s.renderer.MovePiece(id, p.Position())
	}
	return placed, nil
}

// Place drags piece id from where it is to position and releases it there.
// It returns whether the piece is placed afterwards.
func (s *PuzzleSession) Place(id int, position Vec2) (bool, error) {
	p, err := s.piece(id)
	if err != nil {
		return false, err
	}
	if p.IsPlaced() {
		return true, nil
	}
	if err := s.OnPointerDown(id, p.Position()); err != nil {
		return false, err
	}
	if err := s.OnPointerMove(id, position); err != nil {
		return false, err
	}
	return s.OnPointerUp(id)
}

// Tile returns the tile bound to an active piece
func (s *PuzzleSession) Tile(id int) (*partition.Tile, error) {
	p, err := s.piece(id)
	if err != nil {
		return nil, err
	}
	return p.Tile(), nil
}

// Tiles returns the tiles of the current level
func (s *PuzzleSession) Tiles() []partition.Tile {
	return s.tiles
}

// Pieces returns every piece slot, active or not
func (s *PuzzleSession) Pieces() []*Piece {
	return s.pieces
}

// IsComplete reports whether every active piece has been placed
func (s *PuzzleSession) IsComplete() bool {
	return s.complete
}

// PlacedCount returns the number of placements reported this level
func (s *PuzzleSession) PlacedCount() int {
	return s.placedCount
}

// ActiveCount returns the number of pieces in play this level
func (s *PuzzleSession) ActiveCount() int {
	return s.activeCount
}

// LevelIndex returns the zero-based index of the current level
func (s *PuzzleSession) LevelIndex() int {
	return s.levelIndex
}

// LevelCount returns the number of level images
func (s *PuzzleSession) LevelCount() int {
	return len(s.levels)
}

// LevelLabel returns the display label of the current level
func (s *PuzzleSession) LevelLabel() string {
	return fmt.Sprintf("Level %d", s.levelIndex+1)
}

// Pack returns the defaulted level pack
func (s *PuzzleSession) Pack() *LevelPack {
	return s.pack
}

// State returns a snapshot of the session. Level fields describe the level
// the pieces belong to; after a failed NextLevel the advanced index is
// reported as PendingLevel.
func (s *PuzzleSession) State() *PuzzleState {
	shown := s.levelIndex
	if s.playing >= 0 {
		shown = s.playing
	}
	state := &PuzzleState{
		ConfigName:   s.pack.Name,
		Level:        shown,
		LevelLabel:   fmt.Sprintf("Level %d", shown+1),
		LevelCount:   len(s.levels),
		Cols:         s.pack.Cols,
		Rows:         s.pack.Rows,
		Board:        s.pack.Board(),
		SnapDistance: s.pack.SnapDistance,
		PlacedCount:  s.placedCount,
		TotalPieces:  s.activeCount,
		Complete:     s.complete,
		Pieces:       make([]PieceState, 0, s.activeCount),
	}
	if shown < len(s.levels) && s.levels[shown] != nil {
		state.LevelImage = s.levels[shown].Name
	}
	if s.playing >= 0 && s.playing != s.levelIndex {
		pending := s.levelIndex
		state.PendingLevel = &pending
	}
	for _, p := range s.pieces {
		if p.active {
			state.Pieces = append(state.Pieces, p.State())
		}
	}
	return state
}

var _ Engine = (*PuzzleSession)(nil)
