package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"droply-server/internal/database"
	"droply-server/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fileEnvelope struct {
	Success bool               `json:"success"`
	Files   []models.FileEntry `json:"files"`
	Folder  *models.FileEntry  `json:"folder"`
	File    *models.FileEntry  `json:"file"`
}

func createFolderViaAPI(t *testing.T, ownerID, name string, parentID *string) *models.FileEntry {
	t.Helper()

	payload := CreateFolderRequest{Name: name, ParentID: parentID, UserID: ownerID}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/folders/create", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, requestAs(req, ownerID))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp fileEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Folder)
	return resp.Folder
}

func countRowsForUser(t *testing.T, ownerID string) int {
	t.Helper()

	var count int
	err := testServer.store.GetPool().QueryRow(context.Background(),
		"SELECT count(*) FROM files WHERE user_id = $1", ownerID).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestAPI_CreateFolder_Success(t *testing.T) {
	folder := createFolderViaAPI(t, "user_cf_ok", "Projects", nil)

	require.Equal(t, "Projects", folder.Name)
	require.Equal(t, "user_cf_ok", folder.UserID)
	require.True(t, folder.IsFolder)
	require.Nil(t, folder.ParentID)
	require.Zero(t, folder.SizeBytes)
}

func TestAPI_CreateFolder_EmptyName(t *testing.T) {
	payload := CreateFolderRequest{Name: "   ", UserID: "user_cf_blank"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/folders/create", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, requestAs(req, "user_cf_blank"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Zero(t, countRowsForUser(t, "user_cf_blank"))
}

func TestAPI_CreateFolder_OwnerMismatchIsRejectedBeforeAnyWrite(t *testing.T) {
	payload := CreateFolderRequest{Name: "Sneaky", UserID: "user_cf_victim"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/folders/create", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	// Authenticated as someone else than the claimed owner.
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, requestAs(req, "user_cf_attacker"))

	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Zero(t, countRowsForUser(t, "user_cf_victim"))
	require.Zero(t, countRowsForUser(t, "user_cf_attacker"))
}

func TestAPI_CreateFolder_ForeignParentLooksMissing(t *testing.T) {
	theirs := createFolderViaAPI(t, "user_cf_other", "Theirs", nil)

	payload := CreateFolderRequest{Name: "Intruder", ParentID: &theirs.ID, UserID: "user_cf_me"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/folders/create", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, requestAs(req, "user_cf_me"))

	// Same 404 as a nonexistent parent; existence of foreign folders must not leak.
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Zero(t, countRowsForUser(t, "user_cf_me"))
}

func TestAPI_CreateFolder_NonFolderParent(t *testing.T) {
	ownerID := "user_cf_fileparent"
	file := commitUploadViaAPI(t, ownerID, "not-a-folder.png", nil)

	payload := CreateFolderRequest{Name: "Nested", ParentID: &file.ID, UserID: ownerID}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/folders/create", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, requestAs(req, ownerID))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_CreateFolder_DuplicatesAllowed(t *testing.T) {
	ownerID := "user_cf_dupes"

	first := createFolderViaAPI(t, ownerID, "Reports", nil)
	second := createFolderViaAPI(t, ownerID, "Reports", nil)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 2, countRowsForUser(t, ownerID))
}

func TestAPI_ListFiles_OwnerMismatch(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/files?userId=user_lf_other", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.ListFilesHandler).ServeHTTP(rr, requestAs(req, "user_lf_me"))

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_ListFiles_EndToEnd(t *testing.T) {
	ownerID := "user_e2e"

	docs := createFolderViaAPI(t, ownerID, "Docs", nil)
	require.True(t, docs.IsFolder)
	require.Nil(t, docs.ParentID)

	notes := createFolderViaAPI(t, ownerID, "Notes", &docs.ID)
	require.NotNil(t, notes.ParentID)
	require.Equal(t, docs.ID, *notes.ParentID)

	// Children of Docs: exactly Notes.
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/files?parentId=%s", docs.ID), nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.ListFilesHandler).ServeHTTP(rr, requestAs(req, ownerID))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp fileEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Files, 1)
	require.Equal(t, "Notes", resp.Files[0].Name)

	// Root listing: exactly Docs, never the nested Notes.
	req = httptest.NewRequest("GET", "/api/v1/files?userId="+ownerID, nil)
	rr = httptest.NewRecorder()
	http.HandlerFunc(testServer.ListFilesHandler).ServeHTTP(rr, requestAs(req, ownerID))

	require.Equal(t, http.StatusOK, rr.Code)
	resp = fileEnvelope{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	require.Equal(t, "Docs", resp.Files[0].Name)
}

func TestAPI_ListFiles_NeverLeaksOtherUsers(t *testing.T) {
	createFolderViaAPI(t, "user_leak_a", "A", nil)
	createFolderViaAPI(t, "user_leak_b", "B", nil)

	req := httptest.NewRequest("GET", "/api/v1/files", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.ListFilesHandler).ServeHTTP(rr, requestAs(req, "user_leak_a"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp fileEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	for _, f := range resp.Files {
		require.Equal(t, "user_leak_a", f.UserID)
	}
}

func newAuthedRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(testServer.AuthMiddleware)
		r.Patch("/files/{fileId}", testServer.UpdateFileHandler)
	})
	return router
}

func TestAPI_UpdateFile_RenameThroughMiddleware(t *testing.T) {
	// Token carries user_api_test, so the folder must belong to that user.
	folder := createFolderViaAPI(t, "user_api_test", "Old Name", nil)

	newName := "New Name"
	payload := UpdateFileRequest{Name: &newName}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/api/v1/files/%s", folder.ID), bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()

	newAuthedRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	updated, err := testServer.store.GetFileByID(context.Background(), folder.ID, "user_api_test")
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)

	// The rename is journaled in the same transaction.
	events, err := testServer.store.GetEventsSince(context.Background(), "user_api_test", 0)
	require.NoError(t, err)
	var sawUpdate bool
	for _, ev := range events {
		if ev.EventType == "file_updated" {
			sawUpdate = true
		}
	}
	require.True(t, sawUpdate)
}

func TestAPI_UpdateFile_NoToken(t *testing.T) {
	req := httptest.NewRequest("PATCH", "/api/v1/files/whatever", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()

	newAuthedRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_UpdateFile_MoveAndCycleGuard(t *testing.T) {
	ownerID := "user_move_api"

	outer := createFolderViaAPI(t, ownerID, "Outer", nil)
	inner := createFolderViaAPI(t, ownerID, "Inner", &outer.ID)

	router := chi.NewRouter()
	router.Patch("/api/v1/files/{fileId}", func(w http.ResponseWriter, r *http.Request) {
		testServer.UpdateFileHandler(w, requestAs(r, ownerID))
	})

	// Moving Outer into its own child must fail.
	payload := UpdateFileRequest{ParentID: &inner.ID}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/api/v1/files/%s", outer.ID), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Moving Inner to the root works.
	root := ""
	payload = UpdateFileRequest{ParentID: &root}
	body, _ = json.Marshal(payload)
	req = httptest.NewRequest("PATCH", fmt.Sprintf("/api/v1/files/%s", inner.ID), bytes.NewReader(body))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	moved, err := testServer.store.GetFileByID(context.Background(), inner.ID, ownerID)
	require.NoError(t, err)
	require.Nil(t, moved.ParentID)
}

func TestAPI_UpdateFile_BadMoveTargetLeavesNameUntouched(t *testing.T) {
	ownerID := "user_atomic_patch"
	folder := createFolderViaAPI(t, ownerID, "Original", nil)

	router := chi.NewRouter()
	router.Patch("/api/v1/files/{fileId}", func(w http.ResponseWriter, r *http.Request) {
		testServer.UpdateFileHandler(w, requestAs(r, ownerID))
	})

	name := "Renamed"
	missing := "no_such_folder"
	payload := UpdateFileRequest{Name: &name, ParentID: &missing}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/api/v1/files/%s", folder.ID), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)

	unchanged, err := testServer.store.GetFileByID(context.Background(), folder.ID, ownerID)
	require.NoError(t, err)
	require.Equal(t, "Original", unchanged.Name)
	require.Nil(t, unchanged.ParentID)
}

func TestAPI_TrashAndRestore(t *testing.T) {
	ownerID := "user_trash_api"
	folder := createFolderViaAPI(t, ownerID, "Doomed", nil)

	router := chi.NewRouter()
	router.Post("/api/v1/files/{fileId}/trash", func(w http.ResponseWriter, r *http.Request) {
		testServer.TrashFileHandler(w, requestAs(r, ownerID))
	})
	router.Post("/api/v1/files/{fileId}/restore", func(w http.ResponseWriter, r *http.Request) {
		testServer.RestoreFileHandler(w, requestAs(r, ownerID))
	})

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/files/%s/trash", folder.ID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Trashing again is a 404: the row is already flagged.
	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/files/%s/trash", folder.ID), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/files/%s/restore", folder.ID), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	restored, err := testServer.store.GetFileByID(context.Background(), folder.ID, ownerID)
	require.NoError(t, err)
	require.False(t, restored.IsTrashed)
}

func TestAPI_StarUnstar(t *testing.T) {
	ownerID := "user_star_api"
	folder := createFolderViaAPI(t, ownerID, "Favorites", nil)

	router := chi.NewRouter()
	router.Post("/api/v1/files/{fileId}/star", func(w http.ResponseWriter, r *http.Request) {
		testServer.StarFileHandler(w, requestAs(r, ownerID))
	})
	router.Delete("/api/v1/files/{fileId}/star", func(w http.ResponseWriter, r *http.Request) {
		testServer.UnstarFileHandler(w, requestAs(r, ownerID))
	})

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/files/%s/star", folder.ID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp fileEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.File.IsStarred)

	listReq := httptest.NewRequest("GET", "/api/v1/starred", nil)
	listRR := httptest.NewRecorder()
	http.HandlerFunc(testServer.ListStarredHandler).ServeHTTP(listRR, requestAs(listReq, ownerID))

	require.Equal(t, http.StatusOK, listRR.Code)
	resp = fileEnvelope{}
	require.NoError(t, json.Unmarshal(listRR.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)

	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/files/%s/star", folder.ID), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp = fileEnvelope{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.File.IsStarred)
}

func TestAPI_EmptyTrash(t *testing.T) {
	ownerID := "user_purge_api"
	folder := createFolderViaAPI(t, ownerID, "Garbage", nil)

	_, err := testServer.store.SetTrashed(context.Background(), folder.ID, ownerID, true)
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/api/v1/trash/empty", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.EmptyTrashHandler).ServeHTTP(rr, requestAs(req, ownerID))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Zero(t, countRowsForUser(t, ownerID))

	trashReq := httptest.NewRequest("GET", "/api/v1/trash", nil)
	trashRR := httptest.NewRecorder()
	http.HandlerFunc(testServer.ListTrashHandler).ServeHTTP(trashRR, requestAs(trashReq, ownerID))

	require.Equal(t, http.StatusOK, trashRR.Code)
	var resp fileEnvelope
	require.NoError(t, json.Unmarshal(trashRR.Body.Bytes(), &resp))
	require.Empty(t, resp.Files)
}

func TestAPI_EventsJournal(t *testing.T) {
	ownerID := "user_events_api"
	createFolderViaAPI(t, ownerID, "Tracked", nil)

	req := httptest.NewRequest("GET", "/api/v1/events", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.GetEventsHandler).ServeHTTP(rr, requestAs(req, ownerID))

	require.Equal(t, http.StatusOK, rr.Code)
	var events []database.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	require.Equal(t, "file_created", events[0].EventType)
}
