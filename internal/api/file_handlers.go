package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"droply-server/internal/database"
	"droply-server/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
)

func (s *Server) generateUniqueID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.store.FileExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for id collision: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

func (s *Server) publishEvent(userID, eventType string, payload interface{}) {
	eventMsg := map[string]interface{}{"event_type": eventType, "payload": payload}
	eventBytes, err := json.Marshal(eventMsg)
	if err != nil {
		return
	}
	s.hub.PublishEvent(userID, eventBytes)
}

// @Summary      List files and folders
// @Description  Lists the caller's entries under the given parent folder, or the root set when parentId is omitted.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        userId    query     string  false  "Claimed owner id; must match the authenticated user"
// @Param        parentId  query     string  false  "Parent folder id; omit for the root listing"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /files [get]
func (s *Server) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	// Ownership is checked before any query is issued.
	if claimed := r.URL.Query().Get("userId"); claimed != "" && claimed != identity.UserID {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var parentID *string
	if v := r.URL.Query().Get("parentId"); v != "" {
		parentID = &v
	}

	limit, offset := parsePagination(r)

	files, err := s.store.ListChildren(r.Context(), identity.UserID, parentID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"files":   files,
	})
}

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
	UserID   string  `json:"userId"`
}

// @Summary      Create a folder
// @Description  Creates a folder under the given parent, or at the root when parentId is omitted. Duplicate sibling names are allowed.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createFolderRequest  body  CreateFolderRequest  true  "Folder to create"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string "Parent folder not found"
// @Router       /folders/create [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID != identity.UserID {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Folder name cannot be empty")
		return
	}

	if req.ParentID != nil {
		parent, err := s.store.GetFolder(r.Context(), *req.ParentID, identity.UserID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to look up parent folder")
			return
		}
		if parent == nil {
			respondError(w, http.StatusNotFound, "Parent folder not found")
			return
		}
	}

	folderID, err := s.generateUniqueID(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate folder id")
		return
	}

	params := database.CreateFileParams{
		ID:       folderID,
		OwnerID:  identity.UserID,
		ParentID: req.ParentID,
		Name:     name,
		Path:     fmt.Sprintf("/folders/%s/%s", identity.UserID, folderID),
		Type:     models.FolderType,
		IsFolder: true,
	}

	var folder *models.FileEntry
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		folder, err = q.CreateFile(r.Context(), params)
		if err != nil {
			return err
		}
		return q.LogEvent(r.Context(), identity.UserID, "file_created", folder)
	})
	if txErr != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create folder")
		return
	}

	s.publishEvent(identity.UserID, "file_created", folder)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"folder":  folder,
	})
}

type UpdateFileRequest struct {
	Name *string `json:"name"`
	// ParentID moves the entry; an empty string moves it to the root.
	ParentID *string `json:"parentId"`
}

// @Summary      Rename or move an entry
// @Description  Renames the entry, moves it to another folder, or both. Pass an empty parentId to move it to the root.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        fileId             path  string             true  "Entry id"
// @Param        updateFileRequest  body  UpdateFileRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /files/{fileId} [patch]
func (s *Server) UpdateFileHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	var req UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == nil && req.ParentID == nil {
		respondError(w, http.StatusBadRequest, "No update operation specified (provide 'name' or 'parentId')")
		return
	}

	var newName string
	if req.Name != nil {
		newName = strings.TrimSpace(*req.Name)
		if newName == "" {
			respondError(w, http.StatusBadRequest, "Name cannot be empty")
			return
		}
	}

	// All checks run before the transaction; a rejected move must not
	// leave a rename behind.
	var newParentID *string
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.store.GetFolder(r.Context(), *req.ParentID, identity.UserID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to look up target folder")
			return
		}
		if parent == nil {
			respondError(w, http.StatusNotFound, "Target folder not found")
			return
		}

		isDescendant, err := s.store.IsDescendantOf(r.Context(), fileID, *req.ParentID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to validate move")
			return
		}
		if isDescendant {
			respondError(w, http.StatusBadRequest, database.ErrInvalidMove.Error())
			return
		}

		newParentID = req.ParentID
	}

	var file *models.FileEntry
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		if req.Name != nil {
			success, err := q.RenameFile(r.Context(), fileID, identity.UserID, newName)
			if err != nil {
				return err
			}
			if !success {
				return database.ErrFileNotFound
			}
		}

		if req.ParentID != nil {
			success, err := q.MoveFile(r.Context(), fileID, identity.UserID, newParentID)
			if err != nil {
				return err
			}
			if !success {
				return database.ErrFileNotFound
			}
		}

		var err error
		file, err = q.GetFileByID(r.Context(), fileID, identity.UserID)
		if err != nil {
			return err
		}
		if file == nil {
			return database.ErrFileNotFound
		}

		return q.LogEvent(r.Context(), identity.UserID, "file_updated", file)
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrFileNotFound) {
			respondError(w, http.StatusNotFound, "Entry not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update entry")
		return
	}

	s.publishEvent(identity.UserID, "file_updated", file)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"file":    file,
	})
}
