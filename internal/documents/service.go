package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"persona-review/internal/shared/metrics"
	"persona-review/internal/shared/storage/object"
	"persona-review/internal/shared/telemetry"
)

// Purger removes records that belong to a document. Delete runs every
// registered purger before the document row goes away.
type Purger interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store   object.ObjectStore
	Repo    Repo
	Purgers []Purger
	Now     func() time.Time
}

// CreateInput carries an upload. Body is nil when no file was sent.
type CreateInput struct {
	Title    string
	FileName string
	Body     io.Reader
}

// Create validates the title, stores the optional file under the document's
// id and records the document. A stored blob is removed again if the insert fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Document{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}

	doc := Document{
		ID:         uuid.NewString(),
		Title:      title,
		UploadedAt: s.now(),
	}

	if in.Body != nil {
		if strings.TrimSpace(in.FileName) == "" {
			return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		stored, err := s.Store.Save(ctx, doc.ID, in.FileName, in.Body)
		if err != nil {
			return Document{}, fmt.Errorf("store file: %w", err)
		}
		doc.FileRef = stored.Key
		doc.FileName = in.FileName
		doc.MimeType = stored.MimeType
		doc.SizeBytes = stored.SizeBytes
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if doc.HasFile() {
			if delErr := s.Store.Delete(ctx, doc.FileRef); delErr != nil {
				telemetry.Error("document.blob_cleanup_failed", map[string]any{"document_id": doc.ID, "error": delErr})
			}
		}
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	metrics.IncDocumentsUploaded()
	telemetry.Info("document.created", map[string]any{
		"document_id": doc.ID,
		"has_file":    doc.HasFile(),
		"size_bytes":  doc.SizeBytes,
		"mime_type":   doc.MimeType,
	})
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Delete removes dependents, the document row and finally its blob. A blob
// that cannot be removed is logged and does not fail the call.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range s.Purgers {
		if err := p.DeleteByDocument(ctx, id); err != nil {
			return fmt.Errorf("delete dependents of %s: %w", id, err)
		}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.HasFile() {
		if err := s.Store.Delete(ctx, doc.FileRef); err != nil && !errors.Is(err, object.ErrNotFound) {
			telemetry.Error("document.blob_cleanup_failed", map[string]any{"document_id": id, "error": err})
		}
	}
	telemetry.Info("document.deleted", map[string]any{"document_id": id})
	return nil
}

// ReadFile returns the stored bytes of the document's file.
func (s *Service) ReadFile(ctx context.Context, doc Document) ([]byte, error) {
	if !doc.HasFile() {
		return nil, fmt.Errorf("%w: document has no file", ErrInvalidInput)
	}
	return object.ReadAll(ctx, s.Store, doc.FileRef)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
