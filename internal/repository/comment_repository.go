package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

// CommentRepository is data access for comments and attachments.
type CommentRepository interface {
	InsertComment(ctx context.Context, ext sqlx.ExtContext, c *models.Comment) (int64, error)
	ListComments(ctx context.Context, parentType string, parentCode int64) ([]models.Comment, error)
	InsertAttachment(ctx context.Context, ext sqlx.ExtContext, a *models.Attachment) (int64, error)
	ListAttachments(ctx context.Context, parentType string, parentCode int64) ([]models.Attachment, error)
	ParentExists(ctx context.Context, parentType string, parentCode int64) (bool, error)
}

// SQLCommentRepository is the sqlx implementation of CommentRepository.
type SQLCommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a comment repository over db.
func NewCommentRepository(db *sqlx.DB) *SQLCommentRepository {
	return &SQLCommentRepository{db: db}
}

// DB exposes the underlying handle for transaction begin.
func (r *SQLCommentRepository) DB() *sqlx.DB { return r.db }

func (r *SQLCommentRepository) InsertComment(ctx context.Context, ext sqlx.ExtContext, c *models.Comment) (int64, error) {
	cols := []string{"parent_type", "parent_code", "comment_text", "commented_by", "commented_at"}
	vals := []any{c.ParentType, c.ParentCode, c.CommentText, c.CommentedBy, c.CommentedAt}
	return insertReturningID(ctx, ext, "comments", cols, vals)
}

func (r *SQLCommentRepository) ListComments(ctx context.Context, parentType string, parentCode int64) ([]models.Comment, error) {
	var out []models.Comment
	query := database.ConvertPlaceholders(
		"SELECT id, parent_type, parent_code, comment_text, commented_by, commented_at FROM comments WHERE parent_type = ? AND parent_code = ? ORDER BY commented_at")
	if err := r.db.SelectContext(ctx, &out, query, parentType, parentCode); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (r *SQLCommentRepository) InsertAttachment(ctx context.Context, ext sqlx.ExtContext, a *models.Attachment) (int64, error) {
	cols := []string{"parent_type", "parent_code", "file_name", "file_type", "file_size", "file_url", "uploaded_by", "uploaded_at"}
	vals := []any{a.ParentType, a.ParentCode, a.FileName, a.FileType, a.FileSize, a.FileURL, a.UploadedBy, a.UploadedAt}
	return insertReturningID(ctx, ext, "attachments", cols, vals)
}

func (r *SQLCommentRepository) ListAttachments(ctx context.Context, parentType string, parentCode int64) ([]models.Attachment, error) {
	var out []models.Attachment
	query := database.ConvertPlaceholders(
		"SELECT id, parent_type, parent_code, file_name, file_type, file_size, file_url, uploaded_by, uploaded_at FROM attachments WHERE parent_type = ? AND parent_code = ? ORDER BY uploaded_at")
	if err := r.db.SelectContext(ctx, &out, query, parentType, parentCode); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return out, nil
}

// ParentExists checks the parent row in its own table based on parent type.
func (r *SQLCommentRepository) ParentExists(ctx context.Context, parentType string, parentCode int64) (bool, error) {
	var table string
	switch parentType {
	case models.ParentTask:
		table = "tasks"
	case models.ParentEpic:
		table = "epics"
	case models.ParentTimesheetEntry:
		table = "timesheet_entry"
	case models.ParentActivity:
		table = "activities"
	default:
		return false, fmt.Errorf("unknown parent type %q", parentType)
	}
	return exists(ctx, r.db, "SELECT 1 FROM "+table+" WHERE id = ?", parentCode)
}
