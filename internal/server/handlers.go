package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"admhist/pkg/loader"
	"admhist/pkg/storage"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	states, err := s.DB.ListStates(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(states)
}

func (s *Server) handleStateAt(w http.ResponseWriter, r *http.Request) {
	date, err := loader.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := s.DB.StateEntriesAt(r.Context(), date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ChangeListOptions{
		District: q.Get("district"),
	}
	if since := q.Get("since"); since != "" {
		t, err := loader.ParseDate(since)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.Since = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}
	changes, err := s.DB.ListChanges(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(changes)
}

type unitResponse struct {
	Kind     string                 `json:"kind"`
	NameID   string                 `json:"name_id"`
	Timeline []storage.UnitStateRow `json:"timeline"`
	Events   []storage.UnitEventRow `json:"events"`
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("kind")
	nameID := q.Get("name")
	if (kind != "region" && kind != "district") || nameID == "" {
		http.Error(w, "kind (region|district) and name are required", http.StatusBadRequest)
		return
	}
	timeline, err := s.DB.UnitTimeline(r.Context(), kind, nameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(timeline) == 0 {
		http.Error(w, "unit not found", http.StatusNotFound)
		return
	}
	events, err := s.DB.UnitEvents(r.Context(), kind, nameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(unitResponse{Kind: kind, NameID: nameID, Timeline: timeline, Events: events})
}
