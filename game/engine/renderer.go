package engine

import "github.com/wricardo/mcp-training/tilepuzzle/game/partition"

// Renderer receives everything a display needs to draw a session
type Renderer interface {
	ShowPiece(id int, tile *partition.Tile, position Vec2, scale float64)
	MovePiece(id int, position Vec2)
	HidePiece(id int)
	SetLevelLabel(label string)
	SetLevelComplete(complete bool)
}

// NopRenderer discards all output
type NopRenderer struct{}

func (NopRenderer) ShowPiece(int, *partition.Tile, Vec2, float64) {}
func (NopRenderer) MovePiece(int, Vec2)                           {}
func (NopRenderer) HidePiece(int)                                 {}
func (NopRenderer) SetLevelLabel(string)                          {}
func (NopRenderer) SetLevelComplete(bool)                         {}
