package conversations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
)

type turnRow struct {
	ID                  string         `gorm:"primaryKey;type:text"`
	DocumentID          sql.NullString `gorm:"type:text;index:idx_turns_document_ts,priority:1"`
	Message             string         `gorm:"not null"`
	IsPersonaReply      bool           `gorm:"not null;default:false"`
	Timestamp           time.Time      `gorm:"column:timestamp;not null;index:idx_turns_document_ts,priority:2"`
	ParentTurnID        sql.NullString `gorm:"type:text"`
	ConversationGroupID sql.NullString `gorm:"type:text"`
}

func (turnRow) TableName() string { return "conversation_turns" }

func toRow(t Turn) turnRow {
	return turnRow{
		ID:                  t.ID,
		DocumentID:          nullable(t.DocumentID),
		Message:             t.Message,
		IsPersonaReply:      t.IsPersonaReply,
		Timestamp:           t.Timestamp,
		ParentTurnID:        nullable(t.ParentTurnID),
		ConversationGroupID: nullable(t.ConversationGroupID),
	}
}

func (r turnRow) model() Turn {
	return Turn{
		ID:                  r.ID,
		DocumentID:          r.DocumentID.String,
		Message:             r.Message,
		IsPersonaReply:      r.IsPersonaReply,
		Timestamp:           r.Timestamp,
		ParentTurnID:        r.ParentTurnID.String,
		ConversationGroupID: r.ConversationGroupID.String,
	}
}

// SQLiteRepo implements Repo with gorm on SQLite.
type SQLiteRepo struct {
	DB *gorm.DB
}

// AutoMigrate creates or updates the conversation_turns table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&turnRow{})
}

var (
	chronological = []string{`"timestamp" ASC`, "is_persona_reply ASC", "id ASC"}
	newestFirst   = []string{`"timestamp" DESC`, "is_persona_reply DESC", "id DESC"}
)

func ordered(q *gorm.DB, order []string) *gorm.DB {
	for _, o := range order {
		q = q.Order(o)
	}
	return q
}

func (r *SQLiteRepo) Create(ctx context.Context, turn Turn) error {
	row := toRow(turn)
	return r.DB.WithContext(ctx).Create(&row).Error
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (Turn, error) {
	var row turnRow
	err := r.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Turn{}, ErrNotFound
	}
	if err != nil {
		return Turn{}, err
	}
	return row.model(), nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&turnRow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&turnRow{}).Where("parent_turn_id = ?", id).Update("parent_turn_id", nil).Error
	})
}

func (r *SQLiteRepo) ListByDocument(ctx context.Context, documentID string) ([]Turn, error) {
	return r.find(ordered(r.DB.WithContext(ctx).Where("document_id = ?", documentID), chronological))
}

func (r *SQLiteRepo) Recent(ctx context.Context, documentID, excludeID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return []Turn{}, nil
	}
	q := r.DB.WithContext(ctx).Where("document_id = ? AND id <> ?", documentID, excludeID)
	return r.find(ordered(q, newestFirst).Limit(limit))
}

func (r *SQLiteRepo) List(ctx context.Context, documentID string, limit, offset int) ([]Turn, error) {
	limit, offset = clampPage(limit, offset)
	q := r.DB.WithContext(ctx)
	if documentID != "" {
		q = q.Where("document_id = ?", documentID)
	}
	return r.find(ordered(q, chronological).Limit(limit).Offset(offset))
}

func (r *SQLiteRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.DB.WithContext(ctx).Where("document_id = ?", documentID).Delete(&turnRow{}).Error
}

func (r *SQLiteRepo) find(q *gorm.DB) ([]Turn, error) {
	var rows []turnRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Turn, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

var _ Repo = (*SQLiteRepo)(nil)
