package http

import (
	"net/http"

	"substack/internal/services"
)

const categoryResource = "Category"

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID int64) {
	list, err := s.svc.Categories.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleIcons(w http.ResponseWriter, r *http.Request, _ int64) {
	writeJSON(w, http.StatusOK, map[string][]string{"icons": services.Icons()})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	var in services.CreateCategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, categoryResource)
		return
	}

	view, err := s.svc.Categories.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}

	view, err := s.svc.Categories.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}

	var in services.UpdateCategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, categoryResource)
		return
	}

	view, err := s.svc.Categories.Update(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, categoryResource)
		return
	}

	if err := s.svc.Categories.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err, categoryResource)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
