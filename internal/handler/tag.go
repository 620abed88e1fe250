package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListTags handles GET /tags.
// The optional ?q= query parameter filters tags by case-insensitive name
// prefix. Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags := s.tags.List(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, paged(r, tags))
}

// CreateTag handles POST /tags. Creating an existing name returns the
// existing tag.
func (s *Server) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagNameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tag, err := s.tags.GetOrCreate(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// RenameTag handles PUT /tags/{tagID} with {"name": "..."}.
// Every claim carrying the tag is updated by the registry's subscribers.
func (s *Server) RenameTag(w http.ResponseWriter, r *http.Request) {
	current, ok := s.tags.FindByID(chi.URLParam(r, "tagID"))
	if !ok {
		notFound(w, "tag not found")
		return
	}
	var req tagNameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	renamed, err := s.tags.Rename(r.Context(), current, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

// DeleteTag handles DELETE /tags/{tagID}. The tag is also removed from every
// claim that carries it.
func (s *Server) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.tags.FindByID(chi.URLParam(r, "tagID"))
	if !ok {
		notFound(w, "tag not found")
		return
	}
	s.tags.DeleteByID(r.Context(), tag.ID)
	w.WriteHeader(http.StatusNoContent)
}
