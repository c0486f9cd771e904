package conversations

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

const turnColumns = `id, document_id, message, is_persona_reply, "timestamp", parent_turn_id, conversation_group_id`

const (
	chronologicalOrder = `ORDER BY "timestamp" ASC, is_persona_reply ASC, id ASC`
	newestFirstOrder   = `ORDER BY "timestamp" DESC, is_persona_reply DESC, id DESC`
)

func (r *PGRepo) Create(ctx context.Context, turn Turn) error {
	const query = `
INSERT INTO conversation_turns (id, document_id, message, is_persona_reply, "timestamp", parent_turn_id, conversation_group_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		turn.ID,
		nullable(turn.DocumentID),
		turn.Message,
		turn.IsPersonaReply,
		turn.Timestamp,
		nullable(turn.ParentTurnID),
		nullable(turn.ConversationGroupID),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Turn, error) {
	if !validID(id) {
		return Turn{}, ErrNotFound
	}
	query := `SELECT ` + turnColumns + ` FROM conversation_turns WHERE id = $1`
	turn, err := scanTurn(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Turn{}, ErrNotFound
	}
	return turn, err
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM conversation_turns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Turn, error) {
	if !validID(documentID) {
		return []Turn{}, nil
	}
	query := `SELECT ` + turnColumns + ` FROM conversation_turns WHERE document_id = $1 ` + chronologicalOrder
	return r.query(ctx, query, documentID)
}

func (r *PGRepo) Recent(ctx context.Context, documentID, excludeID string, limit int) ([]Turn, error) {
	if limit <= 0 || !validID(documentID) {
		return []Turn{}, nil
	}
	query := `SELECT ` + turnColumns + ` FROM conversation_turns WHERE document_id = $1 AND id <> $2 ` + newestFirstOrder + ` LIMIT $3`
	return r.query(ctx, query, documentID, excludeID, limit)
}

func (r *PGRepo) List(ctx context.Context, documentID string, limit, offset int) ([]Turn, error) {
	limit, offset = clampPage(limit, offset)
	if documentID == "" {
		query := `SELECT ` + turnColumns + ` FROM conversation_turns ` + chronologicalOrder + ` LIMIT $1 OFFSET $2`
		return r.query(ctx, query, limit, offset)
	}
	if !validID(documentID) {
		return []Turn{}, nil
	}
	query := `SELECT ` + turnColumns + ` FROM conversation_turns WHERE document_id = $1 ` + chronologicalOrder + ` LIMIT $2 OFFSET $3`
	return r.query(ctx, query, documentID, limit, offset)
}

func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if !validID(documentID) {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM conversation_turns WHERE document_id = $1`, documentID)
	return err
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Turn, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Turn{}
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (Turn, error) {
	var (
		turn                      Turn
		documentID, parent, group sql.NullString
	)
	err := row.Scan(
		&turn.ID,
		&documentID,
		&turn.Message,
		&turn.IsPersonaReply,
		&turn.Timestamp,
		&parent,
		&group,
	)
	if err != nil {
		return Turn{}, err
	}
	turn.DocumentID = documentID.String
	turn.ParentTurnID = parent.String
	turn.ConversationGroupID = group.String
	return turn, nil
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// validID reports whether id can be compared against a UUID column. Other
// values would make Postgres reject the whole statement.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ Repo = (*PGRepo)(nil)
