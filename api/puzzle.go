package api

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
)

func (s *Server) handleGetPuzzleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetPuzzleState(r.Context(), sessionID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var in service.PointerInput
	if !decode(w, r, &in) {
		return
	}

	id := sessionID(r)
	result, err := s.service.Pointer(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(id, result)
	if in.Event == service.PointerUp {
		logPlacement(id, in.PieceID, result)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PieceID *int    `json:"piece_id"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.PieceID == nil {
		respondError(w, http.StatusBadRequest, "piece_id is required")
		return
	}

	id := sessionID(r)
	result, err := s.service.PlacePiece(r.Context(), id, *req.PieceID, req.X, req.Y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(id, result)
	logPlacement(id, *req.PieceID, result)
	respondJSON(w, http.StatusOK, result)
}

// levelAction adapts a level-wide service call (retry, next) to a handler
func (s *Server) levelAction(call func(service.GameService, context.Context, string) (*service.ActionResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		result, err := call(s.service, r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		s.broadcast(id, result)
		respondJSON(w, http.StatusOK, result)
	}
}

func logPlacement(id string, pieceID int, result *service.ActionResult) {
	outcome := "MISS"
	if result.Placed {
		outcome = "OK"
	}
	var placed, total int
	if st := result.PuzzleState; st != nil {
		placed, total = st.PlacedCount, st.TotalPieces
	}
	log.Printf("[PLACE] session=%s piece=%d status=%s placed=%d/%d complete=%t",
		id, pieceID, outcome, placed, total, result.Complete)
}

// handleTile serves the tile a piece shows in the current level as PNG
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	pieceID, err := strconv.Atoi(mux.Vars(r)["piece"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "piece must be a number")
		return
	}

	tile, err := s.service.GetTile(r.Context(), sessionID(r), pieceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if tile == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("piece %d is not used in this level", pieceID))
		return
	}

	var png bytes.Buffer
	if err := partition.EncodePNG(&png, tile.Image); err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png.Bytes())
}
