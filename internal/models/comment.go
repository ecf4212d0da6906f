package models

import "time"

// Comment attaches free text to a task, epic, or timesheet entry.
type Comment struct {
	ID          int64     `json:"id" db:"id"`
	ParentType  string    `json:"parent_type" db:"parent_type"`
	ParentCode  int64     `json:"parent_code" db:"parent_code"`
	CommentText string    `json:"comment_text" db:"comment_text"`
	CommentedBy string    `json:"commented_by" db:"commented_by"`
	CommentedAt time.Time `json:"commented_at" db:"commented_at"`

	// RenderedHTML is the sanitized markdown rendering, populated on reads
	// only; never stored.
	RenderedHTML string `json:"rendered_html,omitempty" db:"-"`
}

// Attachment records a stored blob against a parent entity. The blob itself
// lives in the upload directory; the row only carries the handle.
type Attachment struct {
	ID         int64     `json:"id" db:"id"`
	ParentType string    `json:"parent_type" db:"parent_type"`
	ParentCode int64     `json:"parent_code" db:"parent_code"`
	FileName   string    `json:"file_name" db:"file_name"`
	FileType   string    `json:"file_type" db:"file_type"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	FileURL    string    `json:"file_url" db:"file_url"`
	UploadedBy string    `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
