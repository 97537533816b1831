package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
)

// Client serves MCP tools by calling the puzzle REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient builds the tool server for the API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tile Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tile Puzzle - MCP Interface

Every tool forwards to the puzzle REST API.

OBJECTIVE:
Each level is an image cut into a grid of tiles. The tiles start scattered
around the board. Drop every piece within snap distance of its slot to
complete the level.

TOOLS:
- create_session: Start a new puzzle session
- list_sessions / get_session: Inspect sessions
- puzzle_state: Board, pieces, positions and progress
- describe_piece: Details and distance-to-slot for one piece
- place_piece: Drag a piece to (x, y) and release it
- pointer: Send a raw pointer event (down, move, up)
- retry_level / next_level: Restart or advance
- list_configs: List level packs
- game_instructions: Full rules`),
	)

	c.registerTools()
}

// sessionArg is the session_id parameter most tools share
func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from create_session"))
}

func pieceArg() mcp.ToolOption {
	return mcp.WithNumber("piece_id", mcp.Required(), mcp.Description("Piece ID (integer, see puzzle_state)"))
}

func (c *Client) registerTools() {
	add := func(tool mcp.Tool, handler server.ToolHandlerFunc) {
		c.mcpServer.AddTool(tool, handler)
	}

	add(mcp.NewTool("create_session",
		mcp.WithDescription("Start a puzzle session, optionally on a specific level pack"),
		mcp.WithString("config_id", mcp.Description("Level pack ID from list_configs; default pack when empty")),
	), c.handleCreateSession)
	add(mcp.NewTool("list_sessions",
		mcp.WithDescription("List running puzzle sessions"),
	), c.handleListSessions)
	add(mcp.NewTool("get_session",
		mcp.WithDescription("Show one session's pack, level and progress"),
		sessionArg(),
	), c.handleGetSession)

	add(mcp.NewTool("puzzle_state",
		mcp.WithDescription("Board geometry plus the position, slot and status of every piece"),
		sessionArg(),
	), c.handlePuzzleState)
	add(mcp.NewTool("describe_piece",
		mcp.WithDescription("One piece: its tile cell, position, slot and distance to the slot"),
		sessionArg(),
		pieceArg(),
	), c.handleDescribePiece)
	add(mcp.NewTool("place_piece",
		mcp.WithDescription("Drag a piece to (x, y) in world units and let go; it snaps if close enough to its slot"),
		sessionArg(),
		pieceArg(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("World X where the piece should land")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("World Y where the piece should land")),
		mcp.WithString("intent", mcp.Description("Why you expect this drop to hit the slot")),
	), c.handlePlacePiece)
	add(mcp.NewTool("pointer",
		mcp.WithDescription("Send a single pointer event to a piece"),
		sessionArg(),
		pieceArg(),
		mcp.WithString("event", mcp.Required(),
			mcp.Enum(service.PointerDown, service.PointerMove, service.PointerUp),
			mcp.Description("down starts a drag, move follows it, up releases")),
		mcp.WithNumber("x", mcp.Description("Pointer world X, unused for up")),
		mcp.WithNumber("y", mcp.Description("Pointer world Y, unused for up")),
	), c.handlePointer)
	add(mcp.NewTool("retry_level",
		mcp.WithDescription("Scatter the current level again"),
		sessionArg(),
	), c.handleRetryLevel)
	add(mcp.NewTool("next_level",
		mcp.WithDescription("Move on to the next level; after the last one play restarts at the first"),
		sessionArg(),
	), c.handleNextLevel)

	add(mcp.NewTool("list_configs",
		mcp.WithDescription("List the level packs sessions can be created with"),
	), c.handleListConfigs)
	add(mcp.NewTool("game_instructions",
		mcp.WithDescription("Rules of the puzzle and its coordinate system"),
	), c.handleGameInstructions)
}

// GetMCPServer exposes the server for stdio or HTTP transports
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// numberArg accepts JSON numbers and numeric strings
func numberArg(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		var f float64
		_, err := fmt.Sscanf(v, "%g", &f)
		return f, err == nil
	default:
		return 0, false
	}
}

func pieceIDArg(args map[string]interface{}) (int, error) {
	f, ok := numberArg(args, "piece_id")
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("piece_id must be a non-negative integer")
	}
	return int(f), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatPuzzleState(session.PuzzleState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if st := s.PuzzleState; st != nil {
			progress = fmt.Sprintf(", %s %d/%d", st.LevelLabel, st.PlacedCount, st.TotalPieces)
		}
		fmt.Fprintf(&result, "- %s (Config: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, progress, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handlePuzzleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var state engine.PuzzleState
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPuzzleState(&state)), nil
}

func (c *Client) handleDescribePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	pieceID, err := pieceIDArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.PuzzleState
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if pieceID >= len(state.Pieces) {
		return mcp.NewToolResultError(fmt.Sprintf("Piece %d does not exist. Valid IDs are 0-%d",
			pieceID, len(state.Pieces)-1)), nil
	}

	return mcp.NewToolResultText(formatPieceDetail(state.Pieces[pieceID], state.SnapDistance)), nil
}

func (c *Client) handlePlacePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	pieceID, err := pieceIDArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, okX := numberArg(args, "x")
	y, okY := numberArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y must be numbers"), nil
	}

	body := map[string]interface{}{"piece_id": pieceID, "x": x, "y": y}
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/place", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handlePointer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	pieceID, err := pieceIDArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, _ := numberArg(args, "x")
	y, _ := numberArg(args, "y")

	input := service.PointerInput{PieceID: pieceID, Event: stringArg(args, "event"), X: x, Y: y}
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/pointer", sessionID), input, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleRetryLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.levelAction(ctx, request, "retry")
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.levelAction(ctx, request, "next")
}

func (c *Client) levelAction(ctx context.Context, request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/%s", sessionID, action), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Level Packs:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "- %s: %s (%dx%d grid, %d levels)\n",
			cfg.ConfigID, cfg.Name, cfg.Cols, cfg.Rows, cfg.Levels)
		if cfg.Description != "" {
			fmt.Fprintf(&result, "  %s\n", cfg.Description)
		}
	}
	return mcp.NewToolResultText(result.String()), nil
}

const instructions = `Tile Puzzle - Complete Instructions

OBJECTIVE:
Each level shows one image cut into a grid of tiles (3x3 by default). The
pieces start scattered just outside the board. Move every piece into its
slot to complete the level.

COORDINATES:
- World units, X grows right, Y grows up.
- The board is a square centered on board.center with side board.size.
- Row 0 is the BOTTOM row of the board, column 0 the LEFT column.
- A piece's slot center is its "target" in puzzle_state.

SNAPPING:
- A released piece snaps when its center is within snap_distance
  (0.3 by default, inclusive) of its slot.
- A snapped piece is locked and ignores further input.
- A miss leaves the piece where it was dropped. Try again.

PLACING PIECES:
- place_piece moves a piece so its center lands on (x, y) and releases it.
  Use the target from puzzle_state or describe_piece.
- pointer sends raw events. Press with "down" at some point, "move" the
  pointer, then "up" to release. The piece keeps the offset between its
  center and the point where it was pressed.

LEVELS:
- The level completes when every active piece is placed.
- retry_level reshuffles the current level.
- next_level advances and wraps to the first level after the last.

TIPS:
- Read puzzle_state first, then place pieces one by one.
- Placed count and remaining pieces are reported after each drop.

Good luck solving the puzzle!`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatPuzzleState(session.PuzzleState))
}

func formatPuzzleState(state *engine.PuzzleState) string {
	if state == nil {
		return "No puzzle state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "%s of %d | Image: %s | Grid: %dx%d | Placed: %d/%d\n",
		state.LevelLabel, state.LevelCount, state.LevelImage,
		state.Cols, state.Rows, state.PlacedCount, state.TotalPieces)
	if state.PendingLevel != nil {
		fmt.Fprintf(&result, "Level %d failed to start; retry or pick another level\n", *state.PendingLevel+1)
	}
	fmt.Fprintf(&result, "Board: center (%.3f, %.3f) size %.3f | Snap distance: %.2f\n\n",
		state.Board.Center.X, state.Board.Center.Y, state.Board.Size, state.SnapDistance)

	result.WriteString("Pieces:\n")
	for _, p := range state.Pieces {
		if !p.Active {
			continue
		}
		status := "loose"
		if p.Placed {
			status = "placed"
		} else if p.Dragging {
			status = "dragging"
		}
		fmt.Fprintf(&result, "  #%d tile[%d,%d] at (%.3f, %.3f) slot (%.3f, %.3f) %s\n",
			p.ID, p.Row, p.Col, p.Position.X, p.Position.Y, p.Target.X, p.Target.Y, status)
	}

	if state.Complete {
		fmt.Fprintf(&result, "\n%s COMPLETE! Use next_level to continue.", state.LevelLabel)
	}
	return result.String()
}

func formatPieceDetail(p engine.PieceState, snapDistance float64) string {
	if !p.Active {
		return fmt.Sprintf("Piece %d is not used in this level", p.ID)
	}

	distance := p.Position.DistanceTo(p.Target)
	var result strings.Builder
	fmt.Fprintf(&result, "Piece %d\n", p.ID)
	fmt.Fprintf(&result, "Tile: row %d, col %d (%dx%d px)\n", p.Row, p.Col, p.TileWidth, p.TileHeight)
	fmt.Fprintf(&result, "Position: (%.3f, %.3f)\n", p.Position.X, p.Position.Y)
	fmt.Fprintf(&result, "Slot: (%.3f, %.3f)\n", p.Target.X, p.Target.Y)
	fmt.Fprintf(&result, "Distance to slot: %.3f", distance)

	switch {
	case p.Placed:
		result.WriteString(" (placed)")
	case distance <= snapDistance:
		result.WriteString(" (would snap on release)")
	}
	return result.String()
}

func formatActionResult(result *service.ActionResult) string {
	var out strings.Builder

	icon := "✗"
	if result.Success {
		icon = "✓"
	}
	fmt.Fprintf(&out, "%s %s\n", icon, result.Message)

	if st := result.PuzzleState; st != nil {
		fmt.Fprintf(&out, "%s: %d/%d placed, %d remaining\n",
			st.LevelLabel, st.PlacedCount, st.TotalPieces, st.Remaining())
	}
	for _, e := range result.Events {
		if e.Type == service.EventLevelComplete || e.Type == service.EventRetry || e.Type == service.EventNextLevel {
			fmt.Fprintf(&out, "Event: %s %s\n", e.Type, e.Message)
		}
	}
	if result.Complete {
		out.WriteString("🎉 Level complete!")
	}
	return strings.TrimRight(out.String(), "\n")
}
