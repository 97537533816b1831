package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
)

// EventStateUpdate carries a full puzzle snapshot
const EventStateUpdate = "state_update"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is one JSON frame pushed to watchers
type Message struct {
	SessionID   string              `json:"session_id"`
	PuzzleState *engine.PuzzleState `json:"puzzle_state,omitempty"`
	Event       string              `json:"event,omitempty"`
	Data        interface{}         `json:"data,omitempty"`
}

// room groups the watchers of one puzzle session. last holds the most recent
// snapshot frame so late joiners start from the current board.
type room struct {
	watchers map[*watcher]struct{}
	last     []byte
}

// Hub fans puzzle updates out to the watchers of each session
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	join  chan *watcher
	leave chan *watcher
	done  chan struct{}
	once  sync.Once
}

// NewHub returns a hub; call Run to accept connections
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
		join:  make(chan *watcher),
		leave: make(chan *watcher),
		done:  make(chan struct{}),
	}
}

// Run serves joins and leaves until Close
func (h *Hub) Run() {
	for {
		select {
		case w := <-h.join:
			h.add(w)
		case w := <-h.leave:
			h.remove(w)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Close stops Run and hangs up on every watcher. Safe to call twice.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// ServeWS upgrades the request and subscribes it to sessionID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	wt := newWatcher(h, conn, sessionID)
	select {
	case h.join <- wt:
	case <-h.done:
		conn.Close()
		return
	}

	go wt.writeLoop()
	go wt.readLoop()
}

// ClientCount reports how many watchers follow a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rm, ok := h.rooms[roomKey(sessionID)]; ok {
		return len(rm.watchers)
	}
	return 0
}

// BroadcastToSession pushes a snapshot and remembers it for late joiners
func (h *Hub) BroadcastToSession(sessionID string, state *engine.PuzzleState) {
	h.publish(&Message{SessionID: sessionID, PuzzleState: state, Event: EventStateUpdate}, true)
}

// BroadcastEvent pushes a named event with an arbitrary payload
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.publish(&Message{SessionID: sessionID, Event: event, Data: data}, false)
}

func (h *Hub) publish(msg *Message, snapshot bool) {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] encode %s for %s: %v", msg.Event, msg.SessionID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[roomKey(msg.SessionID)]
	if !ok {
		return
	}
	if snapshot {
		rm.last = frame
	}
	for w := range rm.watchers {
		if !w.offer(frame) {
			h.dropLocked(w)
		}
	}
}

func (h *Hub) add(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[w.session]
	if !ok {
		rm = &room{watchers: make(map[*watcher]struct{})}
		h.rooms[w.session] = rm
	}
	rm.watchers[w] = struct{}{}
	if rm.last != nil {
		w.offer(rm.last)
	}
	log.Printf("[WS] session %s: watcher joined (%d watching)", w.session, len(rm.watchers))
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(w)
}

// dropLocked detaches w and closes its queue; h.mu must be held
func (h *Hub) dropLocked(w *watcher) {
	rm, ok := h.rooms[w.session]
	if !ok {
		return
	}
	if _, ok := rm.watchers[w]; !ok {
		return
	}
	delete(rm.watchers, w)
	close(w.queue)
	if len(rm.watchers) == 0 {
		delete(h.rooms, w.session)
	}
	log.Printf("[WS] session %s: watcher left (%d watching)", w.session, len(rm.watchers))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, rm := range h.rooms {
		for w := range rm.watchers {
			close(w.queue)
		}
		delete(h.rooms, key)
	}
}

func roomKey(sessionID string) string {
	return strings.ToLower(sessionID)
}
