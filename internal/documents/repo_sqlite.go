package documents

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// documentRow is the gorm model backing SQLiteRepo.
type documentRow struct {
	ID         string    `gorm:"primaryKey;type:text"`
	Title      string    `gorm:"size:255;not null"`
	FileRef    string    `gorm:"not null;default:''"`
	FileName   string    `gorm:"not null;default:''"`
	MimeType   string    `gorm:"not null;default:''"`
	SizeBytes  int64     `gorm:"not null;default:0"`
	UploadedAt time.Time `gorm:"not null;index"`
}

func (documentRow) TableName() string { return "documents" }

// SQLiteRepo implements Repo with gorm on SQLite.
type SQLiteRepo struct {
	DB *gorm.DB
}

// AutoMigrate creates or updates the documents table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&documentRow{})
}

func (r *SQLiteRepo) Create(ctx context.Context, doc Document) error {
	row := documentRow(doc)
	return r.DB.WithContext(ctx).Create(&row).Error
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (Document, error) {
	var row documentRow
	err := r.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return Document(row), nil
}

func (r *SQLiteRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	var rows []documentRow
	err := r.DB.WithContext(ctx).
		Order("uploaded_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, Document(row))
	}
	return out, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&documentRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*SQLiteRepo)(nil)
