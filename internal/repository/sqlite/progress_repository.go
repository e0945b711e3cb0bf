package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProgress(ctx context.Context, q queryRower, userID int64) (*models.UserProgress, error) {
	var (
		p          models.UserProgress
		lastActive sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
SELECT user_id, xp, level, streak, last_active_at FROM user_progress WHERE user_id = ?
`, userID).Scan(&p.UserID, &p.XP, &p.Level, &p.Streak, &lastActive)
	if err != nil {
		return nil, err
	}
	p.LastActiveAt = timePtr(lastActive)
	return &p, nil
}

func (r *progressRepository) Get(ctx context.Context, userID int64) (*models.UserProgress, error) {
	p, err := getProgress(ctx, r.db, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.FromContext(ctx).WithPrefix("progress_repo").Error("failed to get progress: %v", err)
	}
	return p, err
}

func (r *progressRepository) Update(ctx context.Context, userID int64, fn func(models.UserProgress) models.UserProgress) (*models.UserProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("updating progress: user_id=%d", userID)

	var updated models.UserProgress
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getProgress(ctx, tx, userID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			current = &models.UserProgress{UserID: userID, Level: 1}
		case err != nil:
			return err
		}

		updated = fn(*current)
		updated.UserID = userID
		_, err = tx.ExecContext(ctx, `
INSERT INTO user_progress (user_id, xp, level, streak, last_active_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    xp = excluded.xp,
    level = excluded.level,
    streak = excluded.streak,
    last_active_at = excluded.last_active_at
`, userID, updated.XP, updated.Level, updated.Streak, nullTime(updated.LastActiveAt))
		return err
	})
	if err != nil {
		log.Error("failed to update progress: %v", err)
		return nil, err
	}
	log.Debug("progress updated: user_id=%d, xp=%d, level=%d, streak=%d", userID, updated.XP, updated.Level, updated.Streak)
	return &updated, nil
}
