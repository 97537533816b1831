package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
)

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	packs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, packs)
}

// handleGetConfig accepts the pack name with or without its file extension
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	pack, err := s.service.LoadConfig(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pack)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var pack engine.LevelPack
	if !decode(w, r, &pack) {
		return
	}
	if strings.TrimSpace(pack.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), pack.Name, &pack); err != nil {
		respondError(w, statusFor(err), "save "+pack.Name+": "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"config_id": pack.Name})
}
