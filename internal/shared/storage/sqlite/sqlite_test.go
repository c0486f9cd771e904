package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")

	db, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, func(db *gorm.DB) error { return db.AutoMigrate(&widget{}) }))

	require.NoError(t, db.Create(&widget{ID: "w1", Name: "one"}).Error)
	var got widget
	require.NoError(t, db.First(&got, "id = ?", "w1").Error)
	assert.Equal(t, "one", got.Name)
	assert.FileExists(t, path)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ", false)
	assert.Error(t, err)
}
