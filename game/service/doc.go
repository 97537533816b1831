// Package service is the transport-independent face of the puzzle server.
//
// GameService is what the REST API, the WebSocket hub and the MCP tools end
// up calling. It resolves level packs through a ConfigManager, keeps puzzles
// in a SessionManager and drives each session's engine.PuzzleSession.
//
// All calls share one mutex. An action therefore sees either none or all of
// a level transition, matching the engine's single-actor model.
//
//	svc := service.NewGameService(session.NewManager(), packs)
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//	res, err := svc.PlacePiece(ctx, info.ID, 0, -1.67, 1.67)
//
// Before each action the service plugs an event recorder in as the render
// sink. An ActionResult thus lists what a display would have been told
// ("piece_shown", "piece_moved", "piece_hidden", "level_label",
// "level_complete") next to the service's own "piece_placed", "retry" and
// "next_level" events.
package service
