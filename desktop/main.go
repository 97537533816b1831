package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	screenWidth  = 900
	screenHeight = 900
	headerHeight = 48
)

var (
	boardColor   = color.RGBA{40, 44, 52, 255}
	slotColor    = color.RGBA{90, 96, 110, 255}
	outlineColor = color.RGBA{200, 200, 210, 255}
	dragColor    = color.RGBA{255, 215, 0, 255}
	bannerColor  = color.RGBA{20, 120, 60, 220}
)

// pointerCall is one queued pointer event for the server
type pointerCall struct {
	pieceID int
	event   string
	pos     Vec2
}

// Game is the ebiten front end for a single puzzle session
type Game struct {
	api       *apiClient
	sessionID string

	mu        sync.Mutex
	state     *PuzzleState
	tiles     map[int]*ebiten.Image
	tileKey   string
	status    string
	reloading bool

	calls chan pointerCall

	// local drag, drawn ahead of the server's answer
	dragID     int
	dragging   bool
	dragPos    Vec2
	dragOffset Vec2
}

func NewGame(api *apiClient, sessionID string) *Game {
	return &Game{
		api:       api,
		sessionID: sessionID,
		tiles:     make(map[int]*ebiten.Image),
		calls:     make(chan pointerCall, 64),
		dragID:    -1,
	}
}

// setState stores a fresh snapshot and reloads tiles when the level changed
func (g *Game) setState(state *PuzzleState) {
	if state == nil {
		return
	}
	key := fmt.Sprintf("%d:%s", state.Level, state.LevelImage)

	g.mu.Lock()
	g.state = state
	reload := key != g.tileKey && !g.reloading
	if reload {
		g.reloading = true
	}
	g.mu.Unlock()

	if reload {
		go g.loadTiles(key, state)
	}
}

func (g *Game) loadTiles(key string, state *PuzzleState) {
	tiles := make(map[int]*ebiten.Image)
	for _, p := range state.Pieces {
		if !p.Active {
			continue
		}
		img, err := g.api.tile(g.sessionID, p.ID)
		if err != nil {
			log.Printf("tile %d: %v", p.ID, err)
			continue
		}
		tiles[p.ID] = ebiten.NewImageFromImage(img)
	}

	g.mu.Lock()
	g.tiles = tiles
	g.tileKey = key
	g.reloading = false
	current := g.state
	g.mu.Unlock()

	// the level may have moved on while downloading
	if current != nil && fmt.Sprintf("%d:%s", current.Level, current.LevelImage) != key {
		g.setState(current)
	}
}

// pointerWorker sends pointer events in order so down, move and up never race
func (g *Game) pointerWorker() {
	for call := range g.calls {
		result, err := g.api.pointer(g.sessionID, call.pieceID, call.event, call.pos)
		if err != nil {
			g.setStatus(err.Error())
			continue
		}
		if call.event == "up" {
			g.setStatus(result.Message)
		}
		g.setState(result.PuzzleState)
	}
}

// listen applies state pushed by other clients of the same session
func (g *Game) listen() {
	conn, err := g.api.dialWS(g.sessionID)
	if err != nil {
		log.Printf("websocket: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("websocket closed: %v", err)
			return
		}
		if msg.PuzzleState != nil {
			g.setState(msg.PuzzleState)
		}
	}
}

func (g *Game) setStatus(s string) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}

func (g *Game) levelAction(action string) {
	go func() {
		result, err := g.api.levelAction(g.sessionID, action)
		if err != nil {
			g.setStatus(err.Error())
			return
		}
		g.setStatus(result.Message)
		g.setState(result.PuzzleState)
	}()
}

// view maps world units to screen pixels
type view struct {
	scale   float64
	originX float64
	originY float64
}

func (g *Game) view(state *PuzzleState) view {
	reach := state.Board.Size / 2
	for _, p := range state.Pieces {
		if !p.Active {
			continue
		}
		dx := math.Abs(p.Position.X - state.Board.Center.X)
		dy := math.Abs(p.Position.Y - state.Board.Center.Y)
		reach = math.Max(reach, math.Max(dx, dy)+g.pieceSize(state)/2)
	}
	reach *= 1.05

	avail := math.Min(screenWidth, screenHeight-headerHeight)
	scale := avail / (2 * reach)
	return view{
		scale:   scale,
		originX: screenWidth/2 - state.Board.Center.X*scale,
		originY: headerHeight + (screenHeight-headerHeight)/2 + state.Board.Center.Y*scale,
	}
}

func (v view) toScreen(p Vec2) (float64, float64) {
	return v.originX + p.X*v.scale, v.originY - p.Y*v.scale
}

func (v view) toWorld(x, y float64) Vec2 {
	return Vec2{X: (x - v.originX) / v.scale, Y: (v.originY - y) / v.scale}
}

func (g *Game) pieceSize(state *PuzzleState) float64 {
	if state.Cols == 0 {
		return 0
	}
	return state.Board.Size / float64(state.Cols)
}

// hitTest returns the topmost loose piece under the world point
func (g *Game) hitTest(state *PuzzleState, p Vec2) (PieceState, bool) {
	half := g.pieceSize(state) / 2
	for i := len(state.Pieces) - 1; i >= 0; i-- {
		piece := state.Pieces[i]
		if !piece.Active || piece.Placed {
			continue
		}
		if math.Abs(p.X-piece.Position.X) <= half && math.Abs(p.Y-piece.Position.Y) <= half {
			return piece, true
		}
	}
	return PieceState{}, false
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.levelAction("retry")
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		g.levelAction("next")
	}

	g.mu.Lock()
	state := g.state
	g.mu.Unlock()
	if state == nil {
		return nil
	}

	v := g.view(state)
	mx, my := ebiten.CursorPosition()
	cursor := v.toWorld(float64(mx), float64(my))

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		if piece, ok := g.hitTest(state, cursor); ok {
			g.dragging = true
			g.dragID = piece.ID
			g.dragPos = piece.Position
			g.dragOffset = Vec2{X: piece.Position.X - cursor.X, Y: piece.Position.Y - cursor.Y}
			g.send(pointerCall{piece.ID, "down", g.dragPos})
		}
	case g.dragging && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.dragging = false
		g.send(pointerCall{g.dragID, "up", g.dragPos})
	case g.dragging:
		next := Vec2{X: cursor.X + g.dragOffset.X, Y: cursor.Y + g.dragOffset.Y}
		if next != g.dragPos {
			g.dragPos = next
			g.send(pointerCall{g.dragID, "move", next})
		}
	}
	return nil
}

// send queues a pointer call, dropping moves when the queue is full
func (g *Game) send(call pointerCall) {
	if call.event != "move" {
		g.calls <- call
		return
	}
	select {
	case g.calls <- call:
	default:
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	state := g.state
	tiles := g.tiles
	status := g.status
	g.mu.Unlock()

	if state == nil {
		ebitenutil.DebugPrint(screen, "Connecting to "+g.api.baseURL+"...")
		return
	}

	v := g.view(state)
	size := g.pieceSize(state)
	px := float32(size * v.scale)

	// board and slot grid
	bx, by := v.toScreen(Vec2{X: state.Board.Center.X - state.Board.Size/2, Y: state.Board.Center.Y + state.Board.Size/2})
	bs := float32(state.Board.Size * v.scale)
	vector.DrawFilledRect(screen, float32(bx), float32(by), bs, bs, boardColor, false)
	for _, p := range state.Pieces {
		if !p.Active {
			continue
		}
		x, y := v.toScreen(p.Target)
		vector.StrokeRect(screen, float32(x)-px/2, float32(y)-px/2, px, px, 1, slotColor, false)
	}
	vector.StrokeRect(screen, float32(bx), float32(by), bs, bs, 2, outlineColor, false)

	// placed first, then loose, then the one being dragged
	drawPiece := func(p PieceState, pos Vec2) {
		tile, ok := tiles[p.ID]
		x, y := v.toScreen(pos)
		if !ok {
			vector.DrawFilledRect(screen, float32(x)-px/2, float32(y)-px/2, px, px, slotColor, false)
			return
		}
		w, h := tile.Bounds().Dx(), tile.Bounds().Dy()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(px)/float64(w), float64(px)/float64(h))
		op.GeoM.Translate(x-float64(px)/2, y-float64(px)/2)
		screen.DrawImage(tile, op)
	}
	var dragged *PieceState
	for pass := 0; pass < 2; pass++ {
		for i, p := range state.Pieces {
			if !p.Active || p.Placed != (pass == 0) {
				continue
			}
			if g.dragging && p.ID == g.dragID {
				dragged = &state.Pieces[i]
				continue
			}
			drawPiece(p, p.Position)
		}
	}
	if dragged != nil {
		drawPiece(*dragged, g.dragPos)
		x, y := v.toScreen(g.dragPos)
		vector.StrokeRect(screen, float32(x)-px/2, float32(y)-px/2, px, px, 2, dragColor, false)
	}

	header := fmt.Sprintf("%s  level %d/%d %s  placed %d/%d\n%s",
		state.ConfigName, state.Level+1, state.LevelCount, state.LevelLabel,
		state.PlacedCount, state.TotalPieces, status)
	ebitenutil.DebugPrint(screen, header)

	if state.Complete {
		vector.DrawFilledRect(screen, 0, screenHeight/2-30, screenWidth, 60, bannerColor, false)
		ebitenutil.DebugPrintAt(screen, "Level complete!  N: next level   R: retry", screenWidth/2-130, screenHeight/2-8)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "puzzle server base URL")
	sessionID := flag.String("session", "", "join an existing session instead of creating one")
	configID := flag.String("config", "classic", "level pack for a new session")
	flag.Parse()

	api := newAPIClient(*serverURL)

	id := *sessionID
	if id == "" {
		var err error
		id, err = api.createSession(*configID)
		if err != nil {
			log.Fatalf("create session: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Session %s\n", id)
	}

	game := NewGame(api, id)
	state, err := api.state(id)
	if err != nil {
		log.Fatalf("load state: %v", err)
	}
	game.setState(state)

	go game.pointerWorker()
	go game.listen()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Tile Puzzle - " + id)
	if err := ebiten.RunGame(game); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
}
