package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-review/internal/shared/storage/sqlite"
)

func TestSQLiteRepoOrderingAndCleanup(t *testing.T) {
	db, err := sqlite.Open(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	repo := &SQLiteRepo{DB: db}
	ctx := context.Background()

	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	turns := []Turn{
		{ID: "u1", DocumentID: "doc", Message: "q1", Timestamp: at, ConversationGroupID: "g"},
		{ID: "a1", DocumentID: "doc", Message: "r1", IsPersonaReply: true, Timestamp: at, ParentTurnID: "u1", ConversationGroupID: "g"},
		{ID: "u2", DocumentID: "doc", Message: "q2", Timestamp: at.Add(time.Minute)},
		{ID: "x", Message: "general", Timestamp: at},
	}
	for _, turn := range turns {
		require.NoError(t, repo.Create(ctx, turn))
	}

	got, err := repo.ListByDocument(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"u1", "a1", "u2"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "u1", got[1].ParentTurnID)

	recent, err := repo.Recent(ctx, "doc", "u2", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a1", recent[0].ID)

	general, err := repo.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, ContextGeneral, general.ContextType())

	require.NoError(t, repo.Delete(ctx, "u1"))
	reply, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, reply.ParentTurnID)

	require.NoError(t, repo.DeleteByDocument(ctx, "doc"))
	all, err := repo.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "x", all[0].ID)
}
