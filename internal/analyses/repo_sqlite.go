package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type analysisRow struct {
	ID               string         `gorm:"primaryKey;type:text"`
	DocumentID       string         `gorm:"type:text;not null;uniqueIndex"`
	StructuredResult datatypes.JSON `gorm:"not null"`
	CreatedAt        time.Time      `gorm:"not null"`
}

func (analysisRow) TableName() string { return "analyses" }

func toRow(a Analysis) analysisRow {
	return analysisRow{
		ID:               a.ID,
		DocumentID:       a.DocumentID,
		StructuredResult: datatypes.JSON(a.StructuredResult),
		CreatedAt:        a.CreatedAt,
	}
}

func (r analysisRow) model() Analysis {
	return Analysis{
		ID:               r.ID,
		DocumentID:       r.DocumentID,
		StructuredResult: json.RawMessage(r.StructuredResult),
		CreatedAt:        r.CreatedAt,
	}
}

// SQLiteRepo implements Repo with gorm on SQLite.
type SQLiteRepo struct {
	DB *gorm.DB
}

// AutoMigrate creates or updates the analyses table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&analysisRow{})
}

func (r *SQLiteRepo) Create(ctx context.Context, analysis Analysis) error {
	inserted, err := r.insert(ctx, analysis)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyExists
	}
	return nil
}

func (r *SQLiteRepo) CreateIfAbsent(ctx context.Context, analysis Analysis) (Analysis, bool, error) {
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

func (r *SQLiteRepo) insert(ctx context.Context, analysis Analysis) (bool, error) {
	row := toRow(analysis)
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "document_id"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (Analysis, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SQLiteRepo) GetByDocument(ctx context.Context, documentID string) (Analysis, error) {
	return r.first(ctx, "document_id = ?", documentID)
}

func (r *SQLiteRepo) first(ctx context.Context, cond string, arg string) (Analysis, error) {
	var row analysisRow
	err := r.DB.WithContext(ctx).First(&row, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}
	return row.model(), nil
}

func (r *SQLiteRepo) List(ctx context.Context, documentID string, limit, offset int) ([]Analysis, error) {
	limit, offset = clampPage(limit, offset)
	q := r.DB.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset)
	if documentID != "" {
		q = q.Where("document_id = ?", documentID)
	}
	var rows []analysisRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Analysis, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *SQLiteRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.DB.WithContext(ctx).Where("document_id = ?", documentID).Delete(&analysisRow{}).Error
}

var _ Repo = (*SQLiteRepo)(nil)
