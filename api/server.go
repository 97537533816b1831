package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
	"github.com/wricardo/mcp-training/tilepuzzle/transport/websocket"
)

// Server exposes a GameService over HTTP and pushes changes to a Hub
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer routes requests to svc. hub may be nil, which disables /ws.
func NewServer(svc service.GameService, hub *websocket.Hub) *Server {
	s := &Server{service: svc, hub: hub, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	sessions := r.PathPrefix("/sessions").Subrouter()
	sessions.HandleFunc("", s.handleCreateSession).Methods(http.MethodPost)
	sessions.HandleFunc("", s.handleListSessions).Methods(http.MethodGet)
	sessions.HandleFunc("/{id}", s.handleGetSession).Methods(http.MethodGet)
	sessions.HandleFunc("/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	sessions.HandleFunc("/{id}/state", s.handleGetPuzzleState).Methods(http.MethodGet)
	sessions.HandleFunc("/{id}/pointer", s.handlePointer).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/place", s.handlePlace).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/retry", s.levelAction(service.GameService.RetryLevel)).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/next", s.levelAction(service.GameService.NextLevel)).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/pieces/{piece:[0-9]+}/tile.png", s.handleTile).Methods(http.MethodGet)

	r.HandleFunc("/configs", s.handleListConfigs).Methods(http.MethodGet)
	r.HandleFunc("/configs", s.handleCreateConfig).Methods(http.MethodPost)
	r.HandleFunc("/configs/{name}", s.handleGetConfig).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor picks the HTTP status for an error returned by the service
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound),
		errors.Is(err, engine.ErrPieceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidPointerEvent):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrConfiguration),
		errors.Is(err, partition.ErrInvalidInput),
		errors.Is(err, partition.ErrInvalidArgument):
		// the request was fine, the level it hit is not playable
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// decode reads a JSON body, answering 400 itself when that fails
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// broadcast sends the new board to watchers, then a level_complete event
// when the action finished the level
func (s *Server) broadcast(id string, result *service.ActionResult) {
	if s.hub == nil || result == nil {
		return
	}
	s.hub.BroadcastToSession(id, result.PuzzleState)
	for _, ev := range result.Events {
		if ev.Type == service.EventLevelComplete {
			s.hub.BroadcastEvent(id, ev.Type, ev.Message)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	switch {
	case id == "":
		http.Error(w, "missing ?session=<id>", http.StatusBadRequest)
		return
	case s.hub == nil:
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), id); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.hub.ServeWS(w, r, id)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
