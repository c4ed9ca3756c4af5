package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/pricepilot/internal/draft"
)

type draftResponse struct {
	ID    string      `json:"id"`
	Draft draft.Draft `json:"draft"`
}

func (s *server) handleDraftBlank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, draft.Blank(s.currentRates()))
}

func (s *server) handleDraftCreate(w http.ResponseWriter, r *http.Request) {
	var d draft.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateDraft(r.Context(), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draftResponse{ID: id, Draft: d})
}

func (s *server) handleDraftGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.store.GetDraft(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{ID: id, Draft: d})
}

func (s *server) handleDraftUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetDraft(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	var d draft.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveDraft(r.Context(), id, d); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{ID: id, Draft: d})
}
