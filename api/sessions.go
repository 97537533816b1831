package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
		// older clients send config_name
		ConfigName string `json:"config_name,omitempty"`
	}
	// an empty body selects the default pack
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return
	}

	pack := req.ConfigID
	if pack == "" {
		pack = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), pack)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

// handleListSessions accepts ?config=<pack>, ?sort=created|accessed,
// ?order=asc|desc and ?limit=<n>. total counts matches before the limit.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	all, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	q := r.URL.Query()
	sortBy, order := q.Get("sort"), q.Get("order")
	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	if pack := q.Get("config"); pack != "" {
		all = slices.DeleteFunc(all, func(info *service.SessionInfo) bool {
			return info.ConfigName != pack
		})
	}
	total := len(all)

	slices.SortStableFunc(all, func(a, b *service.SessionInfo) int {
		ta, tb := a.LastAccessedAt, b.LastAccessedAt
		if sortBy == "created" {
			ta, tb = a.CreatedAt, b.CreatedAt
		}
		if order == "asc" {
			return ta.Compare(tb)
		}
		return tb.Compare(ta)
	})

	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n < len(all) {
		all = all[:n]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": all,
		"count":    len(all),
		"total":    total,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), sessionID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := s.service.DeleteSession(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
