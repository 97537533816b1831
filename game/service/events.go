package service

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
)

// eventRecorder is the render sink installed for the duration of one action
type eventRecorder struct {
	events []GameEvent
}

func (r *eventRecorder) add(eventType, message string, id *int, pos *engine.Vec2) {
	r.events = append(r.events, GameEvent{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		PieceID:   id,
		Position:  pos,
	})
}

func (r *eventRecorder) ShowPiece(id int, tile *partition.Tile, position engine.Vec2, scale float64) {
	msg := fmt.Sprintf("Piece %d shown", id)
	if tile != nil {
		msg = fmt.Sprintf("Piece %d (row %d, col %d) shown at (%.2f, %.2f)", id, tile.Row, tile.Col, position.X, position.Y)
	}
	r.add(EventPieceShown, msg, &id, &position)
}

func (r *eventRecorder) MovePiece(id int, position engine.Vec2) {
	r.add(EventPieceMoved, fmt.Sprintf("Piece %d at (%.2f, %.2f)", id, position.X, position.Y), &id, &position)
}

func (r *eventRecorder) HidePiece(id int) {
	r.add(EventPieceHidden, fmt.Sprintf("Piece %d hidden", id), &id, nil)
}

func (r *eventRecorder) SetLevelLabel(label string) {
	r.add(EventLevelLabel, label, nil, nil)
}

func (r *eventRecorder) SetLevelComplete(complete bool) {
	if complete {
		r.add(EventLevelComplete, "Level complete!", nil, nil)
	}
}

// record runs fn with a fresh recorder attached to eng
func record(eng *engine.PuzzleSession, fn func() error) ([]GameEvent, error) {
	rec := &eventRecorder{}
	eng.SetRenderer(rec)
	defer eng.SetRenderer(nil)
	err := fn()
	return rec.events, err
}

func hasEvent(events []GameEvent, eventType string) bool {
	for _, e := range events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}
