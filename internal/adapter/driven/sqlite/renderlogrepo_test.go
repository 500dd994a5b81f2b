package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

func record(id string, startedAt time.Time, outcome model.RenderOutcome) model.RenderRecord {
	return model.RenderRecord{
		ID:               id,
		StartedAt:        startedAt,
		Duration:         1250 * time.Millisecond,
		Outcome:          outcome,
		CredentialSource: model.CredentialSourceEnvPassword,
	}
}

func TestRenderLogRepo_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRenderLogRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	failed := record("r2", base.Add(time.Minute), model.RenderOutcomeQueryError)
	failed.Error = `query kpis: ERROR: relation "reporting.claims_enriched" does not exist (SQLSTATE 42P01)`

	require.NoError(t, repo.Record(ctx, record("r1", base, model.RenderOutcomeOK)))
	require.NoError(t, repo.Record(ctx, failed))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "r2", got[0].ID, "newest first")
	assert.Equal(t, model.RenderOutcomeQueryError, got[0].Outcome)
	assert.Equal(t, failed.Error, got[0].Error)
	assert.True(t, base.Add(time.Minute).Equal(got[0].StartedAt))
	assert.Equal(t, 1250*time.Millisecond, got[0].Duration)
	assert.Equal(t, model.CredentialSourceEnvPassword, got[0].CredentialSource)
	assert.Equal(t, "r1", got[1].ID)
}

func TestRenderLogRepo_OrdersSubSecondTimes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRenderLogRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, record("whole", base, model.RenderOutcomeOK)))
	require.NoError(t, repo.Record(ctx, record("half", base.Add(500*time.Millisecond), model.RenderOutcomeOK)))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "half", got[0].ID)
	assert.True(t, base.Add(500*time.Millisecond).Equal(got[0].StartedAt))
}

func TestRenderLogRepo_ListRecentEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRenderLogRepo(db)

	got, err := repo.ListRecent(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRenderLogRepo_ListRecentHonorsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRenderLogRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Record(ctx, record(id, base.Add(time.Duration(i)*time.Second), model.RenderOutcomeOK)))
	}

	got, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestRenderLogRepo_DuplicateIDRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRenderLogRepo(db)
	ctx := context.Background()
	rec := record("dup", time.Now(), model.RenderOutcomeOK)

	require.NoError(t, repo.Record(ctx, rec))
	assert.Error(t, repo.Record(ctx, rec))
}

func TestRenderLogRepo_Prune(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRenderLogRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Record(ctx, record(id, base.Add(time.Duration(i)*time.Second), model.RenderOutcomeOK)))
	}

	removed, err := repo.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	removed, err = repo.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
