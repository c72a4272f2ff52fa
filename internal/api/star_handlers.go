package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) setStarred(w http.ResponseWriter, r *http.Request, starred bool) {
	identity := GetIdentityFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	file, err := s.store.SetStarred(r.Context(), fileID, identity.UserID, starred)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update star flag")
		return
	}
	if file == nil {
		respondError(w, http.StatusNotFound, "Entry not found")
		return
	}

	s.publishEvent(identity.UserID, "file_starred", file)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"file":    file,
	})
}

// @Summary      Star an entry
// @Tags         starred
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path  string  true  "Entry id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /files/{fileId}/star [post]
func (s *Server) StarFileHandler(w http.ResponseWriter, r *http.Request) {
	s.setStarred(w, r, true)
}

// @Summary      Unstar an entry
// @Tags         starred
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path  string  true  "Entry id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /files/{fileId}/star [delete]
func (s *Server) UnstarFileHandler(w http.ResponseWriter, r *http.Request) {
	s.setStarred(w, r, false)
}

// @Summary      List starred entries
// @Tags         starred
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /starred [get]
func (s *Server) ListStarredHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	limit, offset := parsePagination(r)

	files, err := s.store.ListStarred(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list starred entries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"files":   files,
	})
}
