// Package mcp exposes the tile puzzle to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// a running API server, and the JSON response is rendered as plain text.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - puzzle_state, describe_piece
//   - place_piece, pointer
//   - retry_level, next_level
//   - list_configs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
