package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

type attemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository creates a new AttemptRepository implementation
func NewAttemptRepository(db *sql.DB) repository.AttemptRepository {
	return &attemptRepository{db: db}
}

var attemptColumns = []string{
	"id", "user_id", "quiz_id", "status", "total_questions", "selected_question_ids", "config_snapshot",
	"started_at", "paused_at", "resumed_at", "completed_at", "time_spent", "correct_answers", "score",
	"tab_switch_count", "suspicious_activity",
}

var activeStatuses = []string{string(models.AttemptInProgress), string(models.AttemptPaused)}

func scanAttempt(row interface{ Scan(...any) error }) (*models.QuizAttempt, error) {
	var (
		a                               models.QuizAttempt
		selected, config                string
		pausedAt, resumedAt, completeAt sql.NullTime
		correct, score                  sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.UserID, &a.QuizID, &a.Status, &a.TotalQuestions, &selected, &config,
		&a.StartedAt, &pausedAt, &resumedAt, &completeAt, &a.TimeSpent, &correct, &score,
		&a.TabSwitchCount, &a.SuspiciousActivity)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(selected), &a.SelectedQuestionIDs); err != nil {
		return nil, fmt.Errorf("decode selected_question_ids of attempt %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(config), &a.Config); err != nil {
		return nil, fmt.Errorf("decode config_snapshot of attempt %s: %w", a.ID, err)
	}
	a.StartedAt = a.StartedAt.UTC()
	a.PausedAt = timePtr(pausedAt)
	a.ResumedAt = timePtr(resumedAt)
	a.CompletedAt = timePtr(completeAt)
	a.CorrectAnswers = intPtr(correct)
	a.Score = intPtr(score)
	return &a, nil
}

func (r *attemptRepository) Create(ctx context.Context, a models.QuizAttempt) error {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("creating attempt: id=%s, user_id=%d, quiz_id=%d, questions=%d", a.ID, a.UserID, a.QuizID, a.TotalQuestions)

	selected, err := json.Marshal(a.SelectedQuestionIDs)
	if err != nil {
		return err
	}
	config, err := json.Marshal(a.Config)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO quiz_attempts (
    id, user_id, quiz_id, status, total_questions, selected_question_ids, config_snapshot, started_at, time_spent
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, a.ID, a.UserID, a.QuizID, a.Status, a.TotalQuestions, string(selected), string(config), a.StartedAt.UTC(), a.TimeSpent)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("active attempt already exists: user_id=%d, quiz_id=%d", a.UserID, a.QuizID)
			return repository.ErrConflict
		}
		log.Error("failed to insert attempt: %v", err)
		return err
	}
	return nil
}

func (r *attemptRepository) Get(ctx context.Context, id string) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("getting attempt: id=%s", id)

	stmt, args, err := sqlBuilder.Select(attemptColumns...).From("quiz_attempts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanAttempt(r.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("attempt not found: id=%s", id)
		} else {
			log.Error("failed to get attempt: %v", err)
		}
		return nil, err
	}
	return a, nil
}

func (r *attemptRepository) FindActive(ctx context.Context, userID, quizID int64) (*models.QuizAttempt, error) {
	stmt, args, err := sqlBuilder.Select(attemptColumns...).
		From("quiz_attempts").
		Where(squirrel.Eq{"user_id": userID, "quiz_id": quizID, "status": activeStatuses}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanAttempt(r.db.QueryRowContext(ctx, stmt, args...))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.FromContext(ctx).WithPrefix("attempt_repo").Error("failed to find active attempt: %v", err)
	}
	return a, err
}

func applyAttemptFilter(q squirrel.SelectBuilder, f models.AttemptFilter) squirrel.SelectBuilder {
	if f.UserID != 0 {
		q = q.Where(squirrel.Eq{"user_id": f.UserID})
	}
	if f.QuizID != 0 {
		q = q.Where(squirrel.Eq{"quiz_id": f.QuizID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	return q
}

func (r *attemptRepository) List(ctx context.Context, filter models.AttemptFilter) ([]models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("listing attempts: user_id=%d, quiz_id=%d, status=%s, limit=%d, offset=%d",
		filter.UserID, filter.QuizID, filter.Status, filter.Limit, filter.Offset)

	query := applyAttemptFilter(sqlBuilder.Select(attemptColumns...).From("quiz_attempts"), filter).
		OrderBy("started_at DESC", "id")

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	stmt, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	attempts := []models.QuizAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			log.Error("failed to scan attempt row: %v", err)
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

func (r *attemptRepository) Count(ctx context.Context, filter models.AttemptFilter) (int, error) {
	stmt, args, err := applyAttemptFilter(sqlBuilder.Select("COUNT(*)").From("quiz_attempts"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("attempt_repo").Error("failed to count attempts: %v", err)
		return 0, err
	}
	return n, nil
}

// transition runs a guarded status update and maps zero affected rows to ErrStaleState.
func (r *attemptRepository) transition(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("attempt_repo").Error("failed to update attempt: %v", err)
		return err
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrStaleState
	}
	return nil
}

func (r *attemptRepository) Pause(ctx context.Context, id string, at time.Time) error {
	logger.FromContext(ctx).WithPrefix("attempt_repo").Debug("pausing attempt: id=%s", id)
	return r.transition(ctx, `
UPDATE quiz_attempts SET status = ?, paused_at = ?
WHERE id = ? AND status = ?
`, models.AttemptPaused, at.UTC(), id, models.AttemptInProgress)
}

func (r *attemptRepository) Resume(ctx context.Context, id string, at time.Time) error {
	logger.FromContext(ctx).WithPrefix("attempt_repo").Debug("resuming attempt: id=%s", id)
	return r.transition(ctx, `
UPDATE quiz_attempts SET status = ?, resumed_at = ?
WHERE id = ? AND status = ?
`, models.AttemptInProgress, at.UTC(), id, models.AttemptPaused)
}

func (r *attemptRepository) RecordTabSwitch(ctx context.Context, id string) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	var count int
	err := r.db.QueryRowContext(ctx, `
UPDATE quiz_attempts
SET tab_switch_count = tab_switch_count + 1, suspicious_activity = 1
WHERE id = ? AND status != ?
RETURNING tab_switch_count
`, id, models.AttemptCompleted).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrStaleState
	}
	if err != nil {
		log.Error("failed to record tab switch: %v", err)
		return 0, err
	}
	log.Debug("tab switch recorded: id=%s, count=%d", id, count)
	return count, nil
}

func (r *attemptRepository) UpsertAnswer(ctx context.Context, a models.AttemptAnswer) error {
	logger.FromContext(ctx).WithPrefix("attempt_repo").Debug("upserting answer: attempt_id=%s, question_id=%d, option_id=%d",
		a.AttemptID, a.QuestionID, a.SelectedOptionID)

	return r.transition(ctx, `
INSERT INTO attempt_answers (attempt_id, question_id, selected_option_id, is_correct, answered_at)
SELECT ?, ?, ?, ?, ?
WHERE EXISTS (SELECT 1 FROM quiz_attempts WHERE id = ? AND status = ?)
ON CONFLICT(attempt_id, question_id) DO UPDATE SET
    selected_option_id = excluded.selected_option_id,
    is_correct = excluded.is_correct,
    answered_at = excluded.answered_at
`, a.AttemptID, a.QuestionID, a.SelectedOptionID, a.IsCorrect, a.AnsweredAt.UTC(), a.AttemptID, models.AttemptInProgress)
}

func (r *attemptRepository) Answers(ctx context.Context, attemptID string) ([]models.AttemptAnswer, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT attempt_id, question_id, selected_option_id, is_correct, answered_at
FROM attempt_answers
WHERE attempt_id = ?
ORDER BY answered_at, question_id
`, attemptID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("attempt_repo").Error("failed to list answers: %v", err)
		return nil, err
	}
	defer rows.Close()

	answers := []models.AttemptAnswer{}
	for rows.Next() {
		var a models.AttemptAnswer
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.SelectedOptionID, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		a.AnsweredAt = a.AnsweredAt.UTC()
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (r *attemptRepository) CountAnswers(ctx context.Context, attemptID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempt_answers WHERE attempt_id = ?`, attemptID).Scan(&n)
	return n, err
}

func (r *attemptRepository) Complete(ctx context.Context, id string, timeSpent int, at time.Time, score func(correct, total int) int) (*models.CompletedAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("completing attempt: id=%s, time_spent=%d", id, timeSpent)

	done := &models.CompletedAttempt{ID: id, TimeSpent: timeSpent, CompletedAt: at.UTC()}
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			status models.AttemptStatus
			total  int
		)
		err := tx.QueryRowContext(ctx, `SELECT status, total_questions FROM quiz_attempts WHERE id = ?`, id).Scan(&status, &total)
		if err != nil {
			return err
		}
		if status != models.AttemptInProgress {
			return repository.ErrStaleState
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempt_answers WHERE attempt_id = ? AND is_correct = 1`, id).Scan(&done.CorrectAnswers); err != nil {
			return err
		}
		done.Score = score(done.CorrectAnswers, total)

		res, err := tx.ExecContext(ctx, `
UPDATE quiz_attempts
SET status = ?, completed_at = ?, time_spent = ?, correct_answers = ?, score = ?
WHERE id = ? AND status = ?
`, models.AttemptCompleted, done.CompletedAt, done.TimeSpent, done.CorrectAnswers, done.Score, id, models.AttemptInProgress)
		if err != nil {
			return err
		}
		ok, err := affectedOne(res)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrStaleState
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrStaleState) && !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to complete attempt: %v", err)
		}
		return nil, err
	}

	log.Debug("attempt completed: id=%s, correct=%d, score=%d", id, done.CorrectAnswers, done.Score)
	return done, nil
}

func (r *attemptRepository) CompletedScores(ctx context.Context, userID int64, from, to time.Time) (int, int, error) {
	var total, count int
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(score), 0), COUNT(*)
FROM quiz_attempts
WHERE user_id = ? AND status = ? AND completed_at >= ? AND completed_at < ?
`, userID, models.AttemptCompleted, from.UTC(), to.UTC()).Scan(&total, &count)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("attempt_repo").Error("failed to sum completed scores: %v", err)
		return 0, 0, err
	}
	return total, count, nil
}
