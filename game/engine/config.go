package engine

import (
	"fmt"
	"strings"
)

// LevelPack describes an ordered list of level images and the board they are
// assembled on
type LevelPack struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Cols         int      `json:"cols" yaml:"cols"`
	Rows         int      `json:"rows" yaml:"rows"`
	BoardSize    float64  `json:"board_size" yaml:"board_size"`
	BoardCenter  Vec2     `json:"board_center" yaml:"board_center"`
	SnapDistance float64  `json:"snap_distance" yaml:"snap_distance"`
	SpawnMargin  float64  `json:"spawn_margin" yaml:"spawn_margin"`
	PieceSlots   int      `json:"piece_slots,omitempty" yaml:"piece_slots,omitempty"`
	Images       []string `json:"images" yaml:"images"`
}

// ApplyDefaults fills zero-valued fields with the standard 3x3 layout
func (p *LevelPack) ApplyDefaults() {
	if p.Cols == 0 {
		p.Cols = DefaultCols
	}
	if p.Rows == 0 {
		p.Rows = DefaultRows
	}
	if p.BoardSize == 0 {
		p.BoardSize = DefaultBoardSize
	}
	if p.SnapDistance == 0 {
		p.SnapDistance = DefaultSnapDistance
	}
	if p.SpawnMargin == 0 {
		p.SpawnMargin = DefaultSpawnMargin
	}
	if p.PieceSlots == 0 {
		p.PieceSlots = p.Cols * p.Rows
	}
}

// Board returns the board geometry of the pack
func (p *LevelPack) Board() Board {
	return Board{Center: p.BoardCenter, Size: p.BoardSize}
}

// PieceSize returns the world-space side of one piece
func (p *LevelPack) PieceSize() float64 {
	return p.BoardSize / float64(p.Cols)
}

// ValidateLevelPack checks a level pack after defaults have been applied
func ValidateLevelPack(pack *LevelPack) error {
	if pack == nil {
		return fmt.Errorf("%w: level pack is nil", ErrConfiguration)
	}
	if strings.TrimSpace(pack.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrConfiguration)
	}

	if pack.Cols < MinGridSize || pack.Cols > MaxGridSize {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d", ErrConfiguration, MinGridSize, MaxGridSize, pack.Cols)
	}
	if pack.Rows < MinGridSize || pack.Rows > MaxGridSize {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrConfiguration, MinGridSize, MaxGridSize, pack.Rows)
	}
	if pack.PieceSlots < 1 || pack.PieceSlots > MaxSlots {
		return fmt.Errorf("%w: piece_slots must be between 1 and %d, got %d", ErrConfiguration, MaxSlots, pack.PieceSlots)
	}

	if pack.BoardSize <= 0 {
		return fmt.Errorf("%w: board_size must be positive, got %g", ErrConfiguration, pack.BoardSize)
	}
	if pack.SnapDistance <= 0 {
		return fmt.Errorf("%w: snap_distance must be positive, got %g", ErrConfiguration, pack.SnapDistance)
	}
	if pack.SpawnMargin < 0 {
		return fmt.Errorf("%w: spawn_margin cannot be negative, got %g", ErrConfiguration, pack.SpawnMargin)
	}

	if len(pack.Images) == 0 {
		return fmt.Errorf("%w: at least one level image is required", ErrConfiguration)
	}
	for i, img := range pack.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: images[%d] is empty", ErrConfiguration, i)
		}
	}

	return nil
}

// DefaultLevelPack returns a pack with the standard layout for the given images
func DefaultLevelPack(name string, images ...string) *LevelPack {
	pack := &LevelPack{
		Name:   name,
		Images: images,
	}
	pack.ApplyDefaults()
	return pack
}
