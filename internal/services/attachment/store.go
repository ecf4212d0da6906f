// Package attachment stores uploaded files on disk under generated names
// and records them against their parent entity. A failure while persisting
// any file of a batch aborts the whole operation and removes what was
// already written.
package attachment

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/utils"
)

// maxFileSize caps a single upload at 20 MiB.
const maxFileSize = 20 << 20

// Store writes attachment blobs and their rows.
type Store struct {
	db       *sqlx.DB
	comments repository.CommentRepository
	dir      string
	baseURL  string
	logger   *log.Logger
	now      func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an attachment store.
func NewStore(db *sqlx.DB, comments repository.CommentRepository, cfg config.UploadConfig, opts ...Option) *Store {
	s := &Store{
		db:       db,
		comments: comments,
		dir:      cfg.Dir,
		baseURL:  cfg.BaseURL,
		logger:   log.Default(),
		now:      utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveAll persists a batch of uploads against one parent. Either every file
// is written and recorded or none is: the first failure removes the files
// already written and rolls the rows back.
func (s *Store) SaveAll(ctx context.Context, parentType string, parentCode int64, files []*multipart.FileHeader, actor string) ([]models.Attachment, error) {
	ok, err := s.comments.ParentExists(ctx, parentType, parentCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierrors.ReferenceNotFound("%s with ID %d does not exist", parentType, parentCode)
	}
	for _, fh := range files {
		if fh.Size > maxFileSize {
			return nil, apierrors.Validation("File %s exceeds the %d MB limit", fh.Filename, maxFileSize>>20)
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var written []string
	cleanup := func() {
		for _, p := range written {
			if err := os.Remove(p); err != nil {
				s.logger.Printf("[attachment] cleanup of %s failed: %v", p, err)
			}
		}
	}

	now := s.now()
	out := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		stored := uuid.NewString() + filepath.Ext(fh.Filename)
		dst := filepath.Join(s.dir, stored)
		if err := s.writeFile(fh, dst); err != nil {
			cleanup()
			return nil, err
		}
		written = append(written, dst)

		a := models.Attachment{
			ParentType: parentType,
			ParentCode: parentCode,
			FileName:   fh.Filename,
			FileType:   fh.Header.Get("Content-Type"),
			FileSize:   fh.Size,
			FileURL:    s.url(stored),
			UploadedBy: actor,
			UploadedAt: now,
		}
		id, err := s.comments.InsertAttachment(ctx, tx, &a)
		if err != nil {
			cleanup()
			return nil, err
		}
		a.ID = id
		out = append(out, a)
	}

	if err := tx.Commit(); err != nil {
		cleanup()
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[attachment] stored %d file(s) parent=%s/%d by=%s", len(out), parentType, parentCode, actor)
	return out, nil
}

// List returns a parent's attachments.
func (s *Store) List(ctx context.Context, parentType string, parentCode int64) ([]models.Attachment, error) {
	ok, err := s.comments.ParentExists(ctx, parentType, parentCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierrors.NotFound("%s with ID %d does not exist", parentType, parentCode)
	}
	return s.comments.ListAttachments(ctx, parentType, parentCode)
}

func (s *Store) writeFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// url joins the stored name onto the public base URL.
func (s *Store) url(stored string) string {
	if s.baseURL == "" {
		return stored
	}
	return s.baseURL + "/" + path.Join("uploads", stored)
}
