// Package api provides the HTTP REST API for tile puzzle sessions.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"}, empty for default)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET /api/sessions/{id} - Session info with puzzle state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Puzzle:
//   - GET /api/sessions/{id}/state - Current puzzle state
//   - POST /api/sessions/{id}/pointer - Pointer event {"piece_id":0,"event":"down|move|up","x":0,"y":0}
//   - POST /api/sessions/{id}/place - Drag and drop in one call {"piece_id":0,"x":0,"y":0}
//   - POST /api/sessions/{id}/retry - Restart the current level
//   - POST /api/sessions/{id}/next - Advance to the next level (wraps)
//   - GET /api/sessions/{id}/pieces/{piece}/tile.png - Tile image shown by a piece
//
// Configuration:
//   - GET /api/configs - List level packs
//   - GET /api/configs/{name} - Level pack definition
//   - POST /api/configs - Save a level pack
//
// Other:
//   - GET /api/health - Liveness probe
//   - GET /ws?session={id} - WebSocket stream of puzzle state updates
//
// Errors are returned as {"error": "..."} with a status derived from the
// wrapped sentinel: unknown session, piece or pack → 404, bad pointer event
// or body → 400, invalid pack → 422, level that cannot start → 409.
package api
