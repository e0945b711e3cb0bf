package services

import (
	"context"
	"time"

	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/leaderboard"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

// LeaderboardService aggregates completed attempt scores per weekly period
type LeaderboardService interface {
	// Refresh recomputes userID's entry for the week containing at.
	Refresh(ctx context.Context, userID int64, at time.Time) error
	Top(ctx context.Context, at time.Time, limit int) (*models.Leaderboard, error)
}

type leaderboardService struct {
	attemptRepo     repository.AttemptRepository
	leaderboardRepo repository.LeaderboardRepository
	now             func() time.Time
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(attemptRepo repository.AttemptRepository, leaderboardRepo repository.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{
		attemptRepo:     attemptRepo,
		leaderboardRepo: leaderboardRepo,
		now:             time.Now,
	}
}

func (s *leaderboardService) Refresh(ctx context.Context, userID int64, at time.Time) error {
	log := logger.FromContext(ctx)
	period := leaderboard.WeekPeriod(at)

	total, count, err := s.attemptRepo.CompletedScores(ctx, userID, period.Start, period.End)
	if err != nil {
		log.Error("failed to sum completed scores: %v", err)
		return err
	}

	entry := models.LeaderboardEntry{
		UserID:        userID,
		PeriodStart:   period.Start,
		TotalScore:    total,
		AttemptsCount: count,
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.leaderboardRepo.Upsert(ctx, entry); err != nil {
		log.Error("failed to upsert leaderboard entry: %v", err)
		return err
	}
	log.Debug("leaderboard refreshed: user_id=%d, period=%s, total=%d, attempts=%d",
		userID, period.Start.Format(time.DateOnly), total, count)
	return nil
}

func (s *leaderboardService) Top(ctx context.Context, at time.Time, limit int) (*models.Leaderboard, error) {
	_, limit, err := pagination(1, limit)
	if err != nil {
		return nil, err
	}
	period := leaderboard.WeekPeriod(at)

	entries, err := s.leaderboardRepo.Top(ctx, period.Start, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load leaderboard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &models.Leaderboard{PeriodStart: period.Start, PeriodEnd: period.End, Entries: entries}, nil
}
