package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/progression"
	"github.com/vytor/quizforge/internal/repository/sqlite"
	"github.com/vytor/quizforge/internal/testutil"
)

func TestProgressRepository_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	repo := sqlite.NewProgressRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	apply := func(score int, now time.Time) func(models.UserProgress) models.UserProgress {
		return func(p models.UserProgress) models.UserProgress { return progression.Apply(p, score, now) }
	}

	p, err := repo.Update(ctx, 1, apply(90, day1))
	require.NoError(t, err)
	assert.Equal(t, 9, p.XP)
	assert.Equal(t, 1, p.Streak)

	p, err = repo.Update(ctx, 1, apply(100, day1.AddDate(0, 0, 1)))
	require.NoError(t, err)
	assert.Equal(t, 19, p.XP)
	assert.Equal(t, 2, p.Streak)

	stored, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 19, stored.XP)
	assert.Equal(t, 1, stored.Level)
	require.NotNil(t, stored.LastActiveAt)
	assert.True(t, stored.LastActiveAt.Equal(day1.AddDate(0, 0, 1)))
}

func TestLeaderboardRepository_UpsertAndTop(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	repo := sqlite.NewLeaderboardRepository(db)
	ctx := context.Background()

	week := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	now := week.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, models.LeaderboardEntry{UserID: 1, PeriodStart: week, TotalScore: 50, AttemptsCount: 1, UpdatedAt: now}))
	require.NoError(t, repo.Upsert(ctx, models.LeaderboardEntry{UserID: 2, PeriodStart: week, TotalScore: 80, AttemptsCount: 2, UpdatedAt: now}))
	require.NoError(t, repo.Upsert(ctx, models.LeaderboardEntry{UserID: 1, PeriodStart: week, TotalScore: 150, AttemptsCount: 2, UpdatedAt: now}))
	require.NoError(t, repo.Upsert(ctx, models.LeaderboardEntry{UserID: 3, PeriodStart: week.AddDate(0, 0, -7), TotalScore: 999, AttemptsCount: 9, UpdatedAt: now}))

	top, err := repo.Top(ctx, week, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(1), top[0].UserID)
	assert.Equal(t, 150, top[0].TotalScore)
	assert.Equal(t, int64(2), top[1].UserID)
	assert.True(t, top[0].PeriodStart.Equal(week))
}
