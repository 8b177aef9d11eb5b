package model

import "time"

// File type categories derived from MIME type and filename extension.
const (
	FileCategoryImage    = "image"
	FileCategoryPDF      = "pdf"
	FileCategoryDocument = "document"
	FileCategoryText     = "text"
	FileCategoryArchive  = "archive"
	FileCategoryCode     = "code"
	FileCategoryOther    = "other"
)

// File is the metadata record for an uploaded object. The bytes live in
// object storage under StorageKey; rooms are referenced by code without a
// foreign key, so deleting a room leaves its file rows behind.
type File struct {
	ID          string    `json:"id"`
	RoomCode    string    `json:"room_code"`
	Filename    string    `json:"filename"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploaderID  string    `json:"uploader_id"`
	CreatedAt   time.Time `json:"created_at"`
}
