package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres. The unique index on
// analyses.document_id backs the one-analysis-per-document rule.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, document_id, structured_result, created_at`

const insertAnalysis = `
INSERT INTO analyses (id, document_id, structured_result, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id) DO NOTHING`

func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	inserted, err := r.insert(ctx, analysis)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyExists
	}
	return nil
}

func (r *PGRepo) CreateIfAbsent(ctx context.Context, analysis Analysis) (Analysis, bool, error) {
	inserted, err := r.insert(ctx, analysis)
	if err != nil {
		return Analysis{}, false, err
	}
	if inserted {
		return analysis, true, nil
	}
	existing, err := r.GetByDocument(ctx, analysis.DocumentID)
	if err != nil {
		return Analysis{}, false, fmt.Errorf("load existing analysis: %w", err)
	}
	return existing, false, nil
}

func (r *PGRepo) insert(ctx context.Context, analysis Analysis) (bool, error) {
	res, err := r.DB.ExecContext(ctx, insertAnalysis,
		analysis.ID,
		analysis.DocumentID,
		[]byte(analysis.StructuredResult),
		analysis.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PGRepo) GetByDocument(ctx context.Context, documentID string) (Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE document_id = $1`
	return r.getOne(ctx, query, documentID)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (Analysis, error) {
	if !validID(arg) {
		return Analysis{}, ErrNotFound
	}
	analysis, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	return analysis, err
}

func (r *PGRepo) List(ctx context.Context, documentID string, limit, offset int) ([]Analysis, error) {
	limit, offset = clampPage(limit, offset)
	if documentID != "" && !validID(documentID) {
		return []Analysis{}, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	if documentID == "" {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+analysisColumns+` FROM analyses ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	} else {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+analysisColumns+` FROM analyses WHERE document_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
			documentID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if !validID(documentID) {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM analyses WHERE document_id = $1`, documentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var (
		analysis Analysis
		raw      []byte
	)
	if err := row.Scan(&analysis.ID, &analysis.DocumentID, &raw, &analysis.CreatedAt); err != nil {
		return Analysis{}, err
	}
	analysis.StructuredResult = json.RawMessage(raw)
	return analysis, nil
}

// validID reports whether id can be compared against a UUID column. Other
// values would make Postgres reject the whole statement.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ Repo = (*PGRepo)(nil)
