package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/tilepuzzle/api"
	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
	"github.com/wricardo/mcp-training/tilepuzzle/game/session"
	"github.com/wricardo/mcp-training/tilepuzzle/transport/mcp"
	"github.com/wricardo/mcp-training/tilepuzzle/transport/websocket"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Tile Puzzle Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}
	if *host == "" {
		t.Error("Host should have a default value")
	}
	if *configDir == "" {
		t.Error("Config directory should have a default value")
	}
}

func TestGetConfigDirDefault(t *testing.T) {
	t.Setenv("CONFIG_DIR", "")
	if got := getConfigDirDefault(); got != "configs" {
		t.Errorf("Expected configs, got %s", got)
	}

	t.Setenv("CONFIG_DIR", "/srv/packs")
	if got := getConfigDirDefault(); got != "/srv/packs" {
		t.Errorf("Expected /srv/packs, got %s", got)
	}
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		seeded  bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"42", 42, true, false},
		{"0", 0, true, false},
		{"-1", 0, false, true},
		{"abc", 0, false, true},
	}

	for _, tt := range tests {
		got, seeded, err := parseSeed(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSeed(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want || seeded != tt.seeded {
			t.Errorf("parseSeed(%q) = %d, %t; want %d, %t", tt.in, got, seeded, tt.want, tt.seeded)
		}
	}
}

func TestLoadNgrokSettings(t *testing.T) {
	t.Setenv("NGROK_ENABLED", "1")
	t.Setenv("NGROK_AUTHTOKEN", "")
	t.Setenv("NGROK_AUTH_TOKEN", "tok")
	t.Setenv("NGROK_DOMAIN", "puzzle.example.dev")

	s := loadNgrokSettings()
	if !s.enabled || s.authToken != "tok" || s.domain != "puzzle.example.dev" {
		t.Errorf("Unexpected settings %+v", s)
	}

	t.Setenv("NGROK_ENABLED", "no")
	if loadNgrokSettings().enabled {
		t.Error("Expected ngrok disabled")
	}
}

// writeTestPack creates a config dir with one readable level
func writeTestPack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 30, 30))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.png"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	pack := `name: classic
description: test pack
cols: 3
rows: 3
images:
  - a.png
`
	if err := os.WriteFile(filepath.Join(dir, "classic.yaml"), []byte(pack), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func withFlags(t *testing.T, dir, seedValue string) {
	t.Helper()
	origDir, origSeed, origWatch := *configDir, *seed, *watch
	*configDir, *seed, *watch = dir, seedValue, false
	t.Cleanup(func() {
		*configDir, *seed, *watch = origDir, origSeed, origWatch
	})
}

func TestInitializeServices(t *testing.T) {
	withFlags(t, writeTestPack(t), "7")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, err := initializeServices(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	info, err := gameService.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.PuzzleState.TotalPieces != 9 {
		t.Errorf("Expected 9 pieces, got %d", info.PuzzleState.TotalPieces)
	}
}

func TestInitializeServices_Errors(t *testing.T) {
	ctx := context.Background()

	withFlags(t, "/non/existent/path", "")
	if _, err := initializeServices(ctx); err == nil {
		t.Error("Expected error for non-existent config directory")
	}

	withFlags(t, writeTestPack(t), "not-a-number")
	if _, err := initializeServices(ctx); err == nil {
		t.Error("Expected error for invalid seed")
	}
}

func TestRouter(t *testing.T) {
	withFlags(t, writeTestPack(t), "1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, err := initializeServices(ctx)
	if err != nil {
		t.Fatal(err)
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	var mcpClient *mcp.Client
	handler := http.NewServeMux()
	ts := httptest.NewServer(handler)
	defer ts.Close()

	mcpClient = mcp.NewClient(ts.URL)
	handler.Handle("/", newRouter(api.NewServer(gameService, hub), mcpClient))

	if !apiAvailable(ts.URL) {
		t.Fatal("Expected health check to pass")
	}

	// REST
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(`{"config_id":"classic"}`))
	if err != nil {
		t.Fatal(err)
	}
	var info service.SessionInfo
	json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || info.ID == "" {
		t.Fatalf("Expected session to be created, got %d %+v", resp.StatusCode, info)
	}

	// MCP over HTTP proxies back into the REST API
	call := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_sessions","arguments":{}}}`
	resp, err = http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(call))
	if err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(body.String(), info.ID) {
		t.Errorf("Expected MCP response to list session %s, got %s", info.ID, body.String())
	}

	resp, err = http.Get(ts.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", resp.StatusCode)
	}
}

func TestApiAvailable_Down(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	if apiAvailable(ts.URL) {
		t.Error("Expected unavailable when health endpoint is missing")
	}
}

func TestExpireSessions(t *testing.T) {
	sessions := session.NewManager()
	pack := engine.DefaultLevelPack("classic", "a.png")
	levels := []*partition.Image{partition.NewImage("a.png", "png", image.NewNRGBA(image.Rect(0, 0, 30, 30)))}

	stale, err := sessions.Create("old1", pack, levels)
	if err != nil {
		t.Fatal(err)
	}
	stale.LastAccessedAt = time.Now().Add(-time.Hour)
	if _, err := sessions.Create("new1", pack, levels); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go expireSessions(ctx, sessions, 5*time.Millisecond, time.Minute)

	deadline := time.Now().Add(time.Second)
	for sessions.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sessions.Count() != 1 {
		t.Fatalf("Expected only the fresh session to survive, have %d", sessions.Count())
	}
	if _, err := sessions.Get("new1"); err != nil {
		t.Errorf("Fresh session was removed: %v", err)
	}
}
