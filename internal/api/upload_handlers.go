package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"droply-server/internal/database"
	"droply-server/internal/media"
	"droply-server/internal/models"
)

// @Summary      Get upload credentials
// @Description  Issues signed parameters for a direct upload to the media store. Bytes never transit this server.
// @Tags         uploads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  media.UploadCredentials
// @Failure      401  {object}  map[string]string
// @Router       /upload-credentials [get]
func (s *Server) UploadCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	creds := s.media.IssueUploadCredentials()
	respondJSON(w, http.StatusOK, creds)
}

type UploadCommitRequest struct {
	MediaDescriptor media.Descriptor `json:"mediaDescriptor"`
	UserID          string           `json:"userId"`
	ParentID        *string          `json:"parentId"`
}

// @Summary      Commit an upload
// @Description  Persists the metadata record for a file already uploaded to the media store. Lands at the root unless parentId is given.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uploadCommitRequest  body  UploadCommitRequest  true  "Descriptor returned by the media store"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string "Invalid descriptor"
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string "Parent folder not found"
// @Router       /upload [post]
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	var req UploadCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID != identity.UserID {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	if err := s.media.ValidateDescriptor(req.MediaDescriptor); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid file upload data")
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

	fileID, err := s.generateUniqueID(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate file id")
		return
	}

	name := strings.TrimSpace(req.MediaDescriptor.Name)
	if name == "" {
		name = "Untitled"
	}

	fileType := req.MediaDescriptor.FileType
	if fileType == "" {
		fileType = "unknown"
	}

	path := req.MediaDescriptor.FilePath
	if path == "" {
		path = fmt.Sprintf("droply/%s/%s", identity.UserID, name)
	}

	params := database.CreateFileParams{
		ID:           fileID,
		OwnerID:      identity.UserID,
		ParentID:     req.ParentID,
		Name:         name,
		Path:         path,
		Type:         fileType,
		FileURL:      req.MediaDescriptor.URL,
		ThumbnailURL: req.MediaDescriptor.Thumbnail,
		SizeBytes:    req.MediaDescriptor.SizeBytes,
	}

	var file *models.FileEntry
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		file, err = q.CreateFile(r.Context(), params)
		if err != nil {
			return err
		}
		return q.LogEvent(r.Context(), identity.UserID, "file_created", file)
	})
	if txErr != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create file record")
		return
	}

	s.publishEvent(identity.UserID, "file_created", file)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"file":    file,
	})
}
