package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoguard/ecoguard/internal/domain"
)

func TestSettingsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	db := sqlx.NewDb(testDB.DB, "postgres")
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	t.Run("Get_NotFound", func(t *testing.T) {
		testDB.TruncateTables(t)

		_, err := repo.Get(ctx, uuid.New())
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("UpsertAndGet", func(t *testing.T) {
		testDB.TruncateTables(t)
		userID := uuid.New()

		settings := domain.DefaultSettings(userID)
		settings.APIKey = "sk-test"
		settings.AnalysisDepth = domain.DepthDeep
		settings.AutoAnalyze = true
		require.NoError(t, repo.Upsert(ctx, settings))

		fetched, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "sk-test", fetched.APIKey)
		assert.Equal(t, domain.DepthDeep, fetched.AnalysisDepth)
		assert.True(t, fetched.DailyReminder)
		assert.True(t, fetched.AutoAnalyze)
	})

	t.Run("Upsert_Replaces", func(t *testing.T) {
		testDB.TruncateTables(t)
		userID := uuid.New()

		settings := domain.DefaultSettings(userID)
		require.NoError(t, repo.Upsert(ctx, settings))

		settings.AnalysisDepth = domain.DepthQuick
		settings.DailyReminder = false
		require.NoError(t, repo.Upsert(ctx, settings))

		fetched, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.DepthQuick, fetched.AnalysisDepth)
		assert.False(t, fetched.DailyReminder)
	})

	t.Run("Delete", func(t *testing.T) {
		testDB.TruncateTables(t)
		userID := uuid.New()

		require.NoError(t, repo.Upsert(ctx, domain.DefaultSettings(userID)))
		require.NoError(t, repo.Delete(ctx, userID))

		_, err := repo.Get(ctx, userID)
		assert.True(t, domain.IsNotFound(err))
	})
}
