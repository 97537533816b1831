package websocket

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingEvery    = idleTimeout * 9 / 10

	// watchers only send control frames
	readLimit = 512
	queueSize = 256
)

// watcher is one WebSocket connection following a session
type watcher struct {
	hub     *Hub
	conn    *websocket.Conn
	queue   chan []byte
	session string
}

func newWatcher(h *Hub, conn *websocket.Conn, sessionID string) *watcher {
	return &watcher{
		hub:     h,
		conn:    conn,
		queue:   make(chan []byte, queueSize),
		session: roomKey(sessionID),
	}
}

// offer queues a frame without blocking and reports whether it fit
func (w *watcher) offer(frame []byte) bool {
	select {
	case w.queue <- frame:
		return true
	default:
		return false
	}
}

// readLoop discards client frames and leaves the hub once the peer is gone
func (w *watcher) readLoop() {
	defer func() {
		select {
		case w.hub.leave <- w:
		case <-w.hub.done:
		}
		w.conn.Close()
	}()

	w.conn.SetReadLimit(readLimit)
	w.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		if _, _, err := w.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] session %s: read: %v", w.session, err)
			}
			return
		}
	}
}

// writeLoop drains the queue and keeps the connection alive with pings
func (w *watcher) writeLoop() {
	pings := time.NewTicker(pingEvery)
	defer func() {
		pings.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case frame, open := <-w.queue:
			w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !open {
				w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-pings.C:
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
