package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Vec2 is a point in world units, Y up
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Board is the square area pieces are assembled on
type Board struct {
	Center Vec2    `json:"center"`
	Size   float64 `json:"size"`
}

// PieceState mirrors the server's piece snapshot
type PieceState struct {
	ID       int  `json:"id"`
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Position Vec2 `json:"position"`
	Target   Vec2 `json:"target"`
	Placed   bool `json:"placed"`
	Active   bool `json:"active"`
	Dragging bool `json:"dragging,omitempty"`
}

// PuzzleState mirrors the server's puzzle snapshot
type PuzzleState struct {
	ConfigName   string       `json:"config_name"`
	Level        int          `json:"level"`
	LevelLabel   string       `json:"level_label"`
	LevelCount   int          `json:"level_count"`
	LevelImage   string       `json:"level_image"`
	Cols         int          `json:"cols"`
	Rows         int          `json:"rows"`
	Board        Board        `json:"board"`
	SnapDistance float64      `json:"snap_distance"`
	PlacedCount  int          `json:"placed_count"`
	TotalPieces  int          `json:"total_pieces"`
	Complete     bool         `json:"complete"`
	Pieces       []PieceState `json:"pieces"`
}

// WSMessage is one WebSocket frame from the server
type WSMessage struct {
	SessionID   string       `json:"session_id"`
	PuzzleState *PuzzleState `json:"puzzle_state,omitempty"`
	Event       string       `json:"event,omitempty"`
}

type actionResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	PuzzleState *PuzzleState `json:"puzzle_state"`
}

// apiClient talks to the puzzle REST API
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, errResp["error"])
	}
	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *apiClient) createSession(configID string) (string, error) {
	var info struct {
		ID string `json:"id"`
	}
	if err := c.do("POST", "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *apiClient) state(sessionID string) (*PuzzleState, error) {
	var state PuzzleState
	if err := c.do("GET", "/api/sessions/"+sessionID+"/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *apiClient) pointer(sessionID string, pieceID int, event string, pos Vec2) (*actionResult, error) {
	body := map[string]interface{}{"piece_id": pieceID, "event": event, "x": pos.X, "y": pos.Y}
	var result actionResult
	if err := c.do("POST", "/api/sessions/"+sessionID+"/pointer", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) levelAction(sessionID, action string) (*actionResult, error) {
	var result actionResult
	if err := c.do("POST", "/api/sessions/"+sessionID+"/"+action, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) tile(sessionID string, pieceID int) (image.Image, error) {
	resp, err := c.http.Get(fmt.Sprintf("%s/api/sessions/%s/pieces/%d/tile.png", c.baseURL, sessionID, pieceID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %d: status %d", pieceID, resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	return img, err
}

func (c *apiClient) dialWS(sessionID string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"session": {sessionID}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}
