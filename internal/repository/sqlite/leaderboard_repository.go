package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

type leaderboardRepository struct {
	db *sql.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository implementation
func NewLeaderboardRepository(db *sql.DB) repository.LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) Upsert(ctx context.Context, e models.LeaderboardEntry) error {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("upserting leaderboard entry: user_id=%d, period=%s, score=%d", e.UserID, e.PeriodStart.Format(time.DateOnly), e.TotalScore)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO leaderboard_entries (user_id, period_start, total_score, attempts_count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, period_start) DO UPDATE SET
    total_score = excluded.total_score,
    attempts_count = excluded.attempts_count,
    updated_at = excluded.updated_at
`, e.UserID, e.PeriodStart.UTC(), e.TotalScore, e.AttemptsCount, e.UpdatedAt.UTC())
	if err != nil {
		log.Error("failed to upsert leaderboard entry: %v", err)
	}
	return err
}

func (r *leaderboardRepository) Top(ctx context.Context, periodStart time.Time, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	stmt, args, err := sqlBuilder.
		Select("user_id", "period_start", "total_score", "attempts_count", "updated_at").
		From("leaderboard_entries").
		Where(squirrel.Eq{"period_start": periodStart.UTC()}).
		OrderBy("total_score DESC", "attempts_count ASC", "user_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("leaderboard_repo").Error("failed to query leaderboard: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.PeriodStart, &e.TotalScore, &e.AttemptsCount, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.PeriodStart = e.PeriodStart.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
