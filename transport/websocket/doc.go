// Package websocket streams puzzle state to browser and desktop clients.
//
// Clients connect with ?session=<id>. After every pointer, place, retry or
// next action the API calls BroadcastToSession, and each watcher of that
// session receives one JSON Message:
//
//	{"session_id": "a1b2", "event": "state_update", "puzzle_state": {...}}
//
// Named events such as "level_complete" go out through BroadcastEvent with
// their payload in "data". A watcher that joins a session which already has
// watchers first receives the latest snapshot.
//
// Rooms live behind a mutex, so broadcasting works whether or not Run is
// going. Run only handles joins and leaves and hangs up on Close. Frames sent
// by clients are discarded; reading exists to notice disconnects and pongs.
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
//
//	hub.ServeWS(w, r, sessionID)
//	hub.BroadcastToSession(sessionID, state)
package websocket
