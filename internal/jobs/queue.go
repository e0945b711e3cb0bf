package jobs

import (
	"time"

	"github.com/vytor/quizforge/internal/models"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueImport(jobID string, req models.ImportRequest) error
	EnqueueLeaderboardRefresh(userID int64, at time.Time) error
}
