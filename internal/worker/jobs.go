package worker

import (
	"context"
	"time"

	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
)

// QuizImporter runs a queued document import.
// Declared here so the worker package does not import services.
type QuizImporter interface {
	Process(ctx context.Context, jobID string, req models.ImportRequest) error
}

// LeaderboardRefresher recomputes one user's entry for the period containing at.
type LeaderboardRefresher interface {
	Refresh(ctx context.Context, userID int64, at time.Time) error
}

type ImportQuizJob struct {
	Importer QuizImporter
	JobID    string
	Request  models.ImportRequest
}

func (j *ImportQuizJob) Name() string { return "import_quiz" }

func (j *ImportQuizJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"job_id":   j.JobID,
		"owner_id": j.Request.OwnerID,
		"filename": j.Request.Filename,
	})
	log.Info("processing queued import")
	return j.Importer.Process(logger.NewContext(ctx, log), j.JobID, j.Request)
}

type RefreshLeaderboardJob struct {
	Refresher LeaderboardRefresher
	UserID    int64
	At        time.Time
}

func (j *RefreshLeaderboardJob) Name() string { return "refresh_leaderboard" }

func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("user_id", j.UserID)
	return j.Refresher.Refresh(logger.NewContext(ctx, log), j.UserID, j.At)
}
