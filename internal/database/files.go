package database

import (
	"context"
	"errors"
	"time"

	"droply-server/internal/models"

	"github.com/jackc/pgx/v5"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidMove  = errors.New("cannot move a folder into itself or one of its descendants")
)

const fileColumns = `id, name, path, size_bytes, type, file_url, thumbnail_url,
		user_id, parent_id, is_folder, is_starred, is_trashed, created_at, updated_at`

func scanFileEntry(row pgx.Row) (*models.FileEntry, error) {
	var f models.FileEntry
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Path,
		&f.SizeBytes,
		&f.Type,
		&f.FileURL,
		&f.ThumbnailURL,
		&f.UserID,
		&f.ParentID,
		&f.IsFolder,
		&f.IsStarred,
		&f.IsTrashed,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFileEntries(rows pgx.Rows) ([]models.FileEntry, error) {
	defer rows.Close()

	var entries []models.FileEntry
	for rows.Next() {
		f, err := scanFileEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		return []models.FileEntry{}, nil
	}

	return entries, nil
}

type CreateFileParams struct {
	ID           string
	OwnerID      string
	ParentID     *string
	Name         string
	Path         string
	Type         string
	FileURL      string
	ThumbnailURL *string
	SizeBytes    int64
	IsFolder     bool
}

func (q *Queries) CreateFile(ctx context.Context, arg CreateFileParams) (*models.FileEntry, error) {
	query := `
		INSERT INTO files (id, name, path, size_bytes, type, file_url, thumbnail_url,
			user_id, parent_id, is_folder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + fileColumns

	now := time.Now()

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.Name,
		arg.Path,
		arg.SizeBytes,
		arg.Type,
		arg.FileURL,
		arg.ThumbnailURL,
		arg.OwnerID,
		arg.ParentID,
		arg.IsFolder,
		now,
	)

	return scanFileEntry(row)
}

// ListChildren returns every entry under the given parent, or the root set
// when parentID is nil. Trashed rows are not filtered: trash is a flag, not
// a move, so the listing reflects the raw containment relation.
func (q *Queries) ListChildren(ctx context.Context, ownerID string, parentID *string, limit, offset int) ([]models.FileEntry, error) {
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `SELECT ` + fileColumns + `
				 FROM files
				 WHERE user_id = $1 AND parent_id IS NULL
				 ORDER BY is_folder DESC, name
				 LIMIT $2 OFFSET $3`
		rows, err = q.db.Query(ctx, query, ownerID, limit, offset)
	} else {
		query := `SELECT ` + fileColumns + `
				 FROM files
				 WHERE user_id = $1 AND parent_id = $2
				 ORDER BY is_folder DESC, name
				 LIMIT $3 OFFSET $4`
		rows, err = q.db.Query(ctx, query, ownerID, *parentID, limit, offset)
	}

	if err != nil {
		return nil, err
	}

	return collectFileEntries(rows)
}

func (q *Queries) ListStarred(ctx context.Context, ownerID string, limit, offset int) ([]models.FileEntry, error) {
	query := `SELECT ` + fileColumns + `
			 FROM files
			 WHERE user_id = $1 AND is_starred AND NOT is_trashed
			 ORDER BY is_folder DESC, name
			 LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectFileEntries(rows)
}

func (q *Queries) ListTrash(ctx context.Context, ownerID string, limit, offset int) ([]models.FileEntry, error) {
	query := `SELECT ` + fileColumns + `
			 FROM files
			 WHERE user_id = $1 AND is_trashed
			 ORDER BY updated_at DESC
			 LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectFileEntries(rows)
}

func (q *Queries) FileExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM files WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (q *Queries) GetFileByID(ctx context.Context, id, ownerID string) (*models.FileEntry, error) {
	query := `SELECT ` + fileColumns + `
			 FROM files
			 WHERE id = $1 AND user_id = $2`

	f, err := scanFileEntry(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return f, nil
}

// GetFolder fetches an entry only when it is a folder owned by ownerID.
// The ownership filter makes a foreign parent indistinguishable from a
// missing one, which is what the uniform 404 contract requires.
func (q *Queries) GetFolder(ctx context.Context, id, ownerID string) (*models.FileEntry, error) {
	query := `SELECT ` + fileColumns + `
			 FROM files
			 WHERE id = $1 AND user_id = $2 AND is_folder`

	f, err := scanFileEntry(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return f, nil
}

func (q *Queries) SetStarred(ctx context.Context, id, ownerID string, starred bool) (*models.FileEntry, error) {
	query := `
		UPDATE files
		SET is_starred = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
		RETURNING ` + fileColumns

	f, err := scanFileEntry(q.db.QueryRow(ctx, query, starred, time.Now(), id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return f, nil
}

// SetTrashed flips the soft-delete flag on a single row. There is no
// cascade: children keep their parent_id and stay fetchable by id.
func (q *Queries) SetTrashed(ctx context.Context, id, ownerID string, trashed bool) (*models.FileEntry, error) {
	query := `
		UPDATE files
		SET is_trashed = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND is_trashed = $5
		RETURNING ` + fileColumns

	f, err := scanFileEntry(q.db.QueryRow(ctx, query, trashed, time.Now(), id, ownerID, !trashed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return f, nil
}

func (q *Queries) RenameFile(ctx context.Context, id, ownerID, newName string) (bool, error) {
	query := `
		UPDATE files
		SET name = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`
	res, err := q.db.Exec(ctx, query, newName, time.Now(), id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) MoveFile(ctx context.Context, id, ownerID string, newParentID *string) (bool, error) {
	query := `
		UPDATE files
		SET parent_id = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`
	res, err := q.db.Exec(ctx, query, newParentID, time.Now(), id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// IsDescendantOf reports whether candidate sits inside the subtree rooted at
// rootID (or is rootID itself). Guards the move operation against cycles.
func (q *Queries) IsDescendantOf(ctx context.Context, rootID, candidate string) (bool, error) {
	if rootID == candidate {
		return true, nil
	}

	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM files WHERE id = $1

			UNION ALL

			SELECT f.id
			FROM files f
			JOIN subtree s ON f.parent_id = s.id
		)
		SELECT EXISTS (
			SELECT 1 FROM subtree WHERE id = $2
		)
	`
	var isDescendant bool
	err := q.db.QueryRow(ctx, query, rootID, candidate).Scan(&isDescendant)
	return isDescendant, err
}

// EmptyTrash hard-deletes every trashed row owned by ownerID and returns the
// ids of the deleted non-folder entries so the caller can expire their media.
// Children of a purged folder are promoted to the root by the FK's SET NULL.
func (q *Queries) EmptyTrash(ctx context.Context, ownerID string) ([]string, int64, error) {
	query := `
		DELETE FROM files
		WHERE user_id = $1 AND is_trashed
		RETURNING id, is_folder, size_bytes
	`

	rows, err := q.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deletedFileIDs []string
	var freedBytes int64
	for rows.Next() {
		var id string
		var isFolder bool
		var sizeBytes int64
		if err := rows.Scan(&id, &isFolder, &sizeBytes); err != nil {
			return nil, 0, err
		}
		if !isFolder {
			deletedFileIDs = append(deletedFileIDs, id)
			freedBytes += sizeBytes
		}
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return deletedFileIDs, freedBytes, nil
}
