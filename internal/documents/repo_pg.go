package documents

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, title, file_ref, file_name, mime_type, size_bytes, uploaded_at`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, title, file_ref, file_name, mime_type, size_bytes, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.FileRef,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.UploadedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if !validID(id) {
		return Document{}, ErrNotFound
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY uploaded_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes the row; analyses and turns go with it via ON DELETE CASCADE.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.FileRef,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.UploadedAt,
	)
	return doc, err
}

// validID reports whether id can be compared against a UUID column. Other
// values would make Postgres reject the whole statement.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ Repo = (*PGRepo)(nil)
