package models

import "time"

// FileEntry is a single node in a user's file forest: a folder or a file.
// Path is display metadata only; containment is ParentID.
type FileEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size"`
	Type         string    `json:"type"`
	FileURL      string    `json:"fileUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	UserID       string    `json:"userId"`
	ParentID     *string   `json:"parentId"`
	IsFolder     bool      `json:"isFolder"`
	IsStarred    bool      `json:"isStarred"`
	IsTrashed    bool      `json:"isTrashed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FolderType is the sentinel value stored in the type column for folders.
const FolderType = "folder"
