package api

import (
	"errors"
	"net/http"

	"droply-server/internal/database"
	"droply-server/internal/models"

	"github.com/go-chi/chi/v5"
)

// @Summary      Move an entry to trash
// @Description  Sets the trash flag on the entry. Children are not cascaded; they keep their parent reference.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path  string  true  "Entry id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string "Entry not found or already in trash"
// @Router       /files/{fileId}/trash [post]
func (s *Server) TrashFileHandler(w http.ResponseWriter, r *http.Request) {
	s.setTrashed(w, r, true, "file_trashed", "Entry not found or already in trash")
}

// @Summary      Restore an entry from trash
// @Description  Clears the trash flag. The entry reappears under its original parent.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path  string  true  "Entry id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string "Entry not found in trash"
// @Router       /files/{fileId}/restore [post]
func (s *Server) RestoreFileHandler(w http.ResponseWriter, r *http.Request) {
	s.setTrashed(w, r, false, "file_restored", "Entry not found in trash")
}

func (s *Server) setTrashed(w http.ResponseWriter, r *http.Request, trashed bool, eventType, notFoundMsg string) {
	identity := GetIdentityFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	var file *models.FileEntry
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		file, err = q.SetTrashed(r.Context(), fileID, identity.UserID, trashed)
		if err != nil {
			return err
		}
		if file == nil {
			return database.ErrFileNotFound
		}
		return q.LogEvent(r.Context(), identity.UserID, eventType, file)
	})

	if txErr != nil {
		if errors.Is(txErr, database.ErrFileNotFound) {
			respondError(w, http.StatusNotFound, notFoundMsg)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update trash flag")
		return
	}

	s.publishEvent(identity.UserID, eventType, file)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"file":    file,
	})
}

// @Summary      List trash contents
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /trash [get]
func (s *Server) ListTrashHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	limit, offset := parsePagination(r)

	files, err := s.store.ListTrash(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list trash contents")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"files":   files,
	})
}

// @Summary      Empty the trash
// @Description  Permanently deletes every trashed entry owned by the caller. This cannot be undone.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /trash/empty [delete]
func (s *Server) EmptyTrashHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	var deletedFileIDs []string
	var freedBytes int64

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		deletedFileIDs, freedBytes, err = q.EmptyTrash(r.Context(), identity.UserID)
		if err != nil {
			return err
		}
		return q.LogEvent(r.Context(), identity.UserID, "trash_emptied", map[string]interface{}{
			"deletedFiles": deletedFileIDs,
			"freedBytes":   freedBytes,
		})
	})
	if txErr != nil {
		respondError(w, http.StatusInternalServerError, "Failed to empty trash")
		return
	}

	s.publishEvent(identity.UserID, "trash_emptied", deletedFileIDs)

	if deletedFileIDs == nil {
		deletedFileIDs = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"deletedFiles": deletedFileIDs,
		"freedBytes":   freedBytes,
	})
}
