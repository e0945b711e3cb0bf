package jobs

import (
	"time"

	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	importPool      *worker.Pool
	leaderboardPool *worker.Pool
	importer        worker.QuizImporter
	refresher       worker.LeaderboardRefresher
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	importPool *worker.Pool,
	leaderboardPool *worker.Pool,
	importer worker.QuizImporter,
	refresher worker.LeaderboardRefresher,
) JobQueue {
	return &WorkerQueue{
		importPool:      importPool,
		leaderboardPool: leaderboardPool,
		importer:        importer,
		refresher:       refresher,
	}
}

func (q *WorkerQueue) EnqueueImport(jobID string, req models.ImportRequest) error {
	return q.importPool.Submit(&worker.ImportQuizJob{
		Importer: q.importer,
		JobID:    jobID,
		Request:  req,
	})
}

func (q *WorkerQueue) EnqueueLeaderboardRefresh(userID int64, at time.Time) error {
	return q.leaderboardPool.Submit(&worker.RefreshLeaderboardJob{
		Refresher: q.refresher,
		UserID:    userID,
		At:        at,
	})
}
