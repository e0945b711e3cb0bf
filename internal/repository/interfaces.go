package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/quizforge/internal/models"
)

var (
	// ErrConflict is returned when an insert collides with a uniqueness rule,
	// such as a second active attempt for the same user and quiz.
	ErrConflict = errors.New("repository: conflict")
	// ErrStaleState is returned when a conditional attempt update matched no
	// row because the attempt is not in the required status.
	ErrStaleState = errors.New("repository: attempt not in expected state")
)

// QuizRepository handles quiz, question and option data access
type QuizRepository interface {
	// Create inserts the quiz with its questions and options in one transaction.
	Create(ctx context.Context, quiz models.NewQuiz) (*models.Quiz, error)
	Get(ctx context.Context, id int64) (*models.Quiz, error)
	// GetWithQuestions loads the quiz with questions in order_index order.
	GetWithQuestions(ctx context.Context, id int64) (*models.Quiz, error)
	List(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, error)
	Count(ctx context.Context, filter models.QuizFilter) (int, error)
	// Delete hides the quiz from Get, List and Count. Questions stay readable
	// through Question and QuestionsByIDs.
	Delete(ctx context.Context, id int64) error
	QuestionIDs(ctx context.Context, quizID int64) ([]int64, error)
	Question(ctx context.Context, id int64) (*models.Question, error)
	// QuestionsByIDs returns the questions in the order of ids; unknown ids are skipped.
	QuestionsByIDs(ctx context.Context, ids []int64) ([]models.Question, error)
}

// AttemptRepository handles attempt and answer data access. Status changes
// are conditional and return ErrStaleState when the guard does not hold.
type AttemptRepository interface {
	Create(ctx context.Context, attempt models.QuizAttempt) error
	Get(ctx context.Context, id string) (*models.QuizAttempt, error)
	FindActive(ctx context.Context, userID, quizID int64) (*models.QuizAttempt, error)
	List(ctx context.Context, filter models.AttemptFilter) ([]models.QuizAttempt, error)
	Count(ctx context.Context, filter models.AttemptFilter) (int, error)
	Pause(ctx context.Context, id string, at time.Time) error
	Resume(ctx context.Context, id string, at time.Time) error
	RecordTabSwitch(ctx context.Context, id string) (int, error)
	// UpsertAnswer stores the answer while the attempt is IN_PROGRESS; a
	// repeated answer for the same question replaces the previous one.
	UpsertAnswer(ctx context.Context, answer models.AttemptAnswer) error
	Answers(ctx context.Context, attemptID string) ([]models.AttemptAnswer, error)
	CountAnswers(ctx context.Context, attemptID string) (int, error)
	// Complete counts correct answers and finalises an IN_PROGRESS attempt
	// atomically; score maps (correct, total) to the stored score.
	Complete(ctx context.Context, id string, timeSpent int, at time.Time, score func(correct, total int) int) (*models.CompletedAttempt, error)
	// CompletedScores sums scores of the user's attempts completed in [from, to).
	CompletedScores(ctx context.Context, userID int64, from, to time.Time) (total int, count int, err error)
}

// ProgressRepository handles user XP, level and streak
type ProgressRepository interface {
	Get(ctx context.Context, userID int64) (*models.UserProgress, error)
	// Update applies fn to the stored progress (zero value when absent) inside a transaction.
	Update(ctx context.Context, userID int64, fn func(models.UserProgress) models.UserProgress) (*models.UserProgress, error)
}

// LeaderboardRepository handles weekly leaderboard rows
type LeaderboardRepository interface {
	Upsert(ctx context.Context, entry models.LeaderboardEntry) error
	Top(ctx context.Context, periodStart time.Time, limit int) ([]models.LeaderboardEntry, error)
}
