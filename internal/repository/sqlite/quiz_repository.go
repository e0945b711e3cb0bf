package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new QuizRepository implementation
func NewQuizRepository(db *sql.DB) repository.QuizRepository {
	return &quizRepository{db: db}
}

var quizColumns = []string{"id", "owner_id", "title", "template", "question_count", "created_at"}

// live excludes retired quizzes from catalog reads.
var live = squirrel.Eq{"deleted_at": nil}

func scanQuiz(row interface{ Scan(...any) error }, q *models.Quiz) error {
	return row.Scan(&q.ID, &q.OwnerID, &q.Title, &q.Template, &q.QuestionCount, &q.CreatedAt)
}

func (r *quizRepository) Create(ctx context.Context, nq models.NewQuiz) (*models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("creating quiz: owner_id=%d, title=%s, questions=%d", nq.OwnerID, nq.Title, len(nq.Questions))

	quiz := &models.Quiz{
		OwnerID:       nq.OwnerID,
		Title:         nq.Title,
		Template:      nq.Template,
		QuestionCount: len(nq.Questions),
		CreatedAt:     time.Now().UTC(),
	}
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
INSERT INTO quizzes (owner_id, title, template, question_count, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`, nq.OwnerID, nq.Title, nq.Template, len(nq.Questions), quiz.CreatedAt).Scan(&quiz.ID)
		if err != nil {
			log.Error("failed to insert quiz: %v", err)
			return err
		}

		qStmt, err := tx.PrepareContext(ctx, `INSERT INTO questions (quiz_id, order_index, text, explanation) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer qStmt.Close()
		oStmt, err := tx.PrepareContext(ctx, `INSERT INTO options (question_id, label, text, is_correct) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer oStmt.Close()

		quiz.Questions = make([]models.Question, 0, len(nq.Questions))
		for _, nqq := range nq.Questions {
			res, err := qStmt.ExecContext(ctx, quiz.ID, nqq.OrderIndex, nqq.Text, nqq.Explanation)
			if err != nil {
				log.Error("failed to insert question order=%d: %v", nqq.OrderIndex, err)
				return err
			}
			qid, err := res.LastInsertId()
			if err != nil {
				return err
			}
			question := models.Question{
				ID:          qid,
				QuizID:      quiz.ID,
				OrderIndex:  nqq.OrderIndex,
				Text:        nqq.Text,
				Explanation: nqq.Explanation,
				Options:     make([]models.Option, 0, len(nqq.Options)),
			}
			for _, no := range nqq.Options {
				res, err := oStmt.ExecContext(ctx, qid, no.Label, no.Text, no.IsCorrect)
				if err != nil {
					log.Error("failed to insert option %s for question %d: %v", no.Label, qid, err)
					return err
				}
				oid, err := res.LastInsertId()
				if err != nil {
					return err
				}
				question.Options = append(question.Options, models.Option{
					ID: oid, QuestionID: qid, Label: no.Label, Text: no.Text, IsCorrect: no.IsCorrect,
				})
			}
			quiz.Questions = append(quiz.Questions, question)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("quiz created: id=%d", quiz.ID)
	return quiz, nil
}

func (r *quizRepository) Get(ctx context.Context, id int64) (*models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("getting quiz: id=%d", id)

	query, args, err := sqlBuilder.Select(quizColumns...).From("quizzes").Where(squirrel.Eq{"id": id}).Where(live).ToSql()
	if err != nil {
		return nil, err
	}

	var q models.Quiz
	if err := scanQuiz(r.db.QueryRowContext(ctx, query, args...), &q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz not found: id=%d", id)
		} else {
			log.Error("failed to get quiz: %v", err)
		}
		return nil, err
	}
	return &q, nil
}

func (r *quizRepository) GetWithQuestions(ctx context.Context, id int64) (*models.Quiz, error) {
	q, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := r.questions(ctx, squirrel.Eq{"quiz_id": id})
	if err != nil {
		return nil, err
	}
	q.Questions = questions
	return q, nil
}

func (r *quizRepository) List(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("listing quizzes: owner_id=%d, limit=%d, offset=%d", filter.OwnerID, filter.Limit, filter.Offset)

	query := sqlBuilder.Select(quizColumns...).From("quizzes").Where(live)
	if filter.OwnerID != 0 {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	query = query.OrderBy("created_at DESC", "id DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
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
		log.Error("failed to list quizzes: %v", err)
		return nil, err
	}
	defer rows.Close()

	quizzes := []models.Quiz{}
	for rows.Next() {
		var q models.Quiz
		if err := scanQuiz(rows, &q); err != nil {
			log.Error("failed to scan quiz row: %v", err)
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	log.Debug("found %d quizzes", len(quizzes))
	return quizzes, rows.Err()
}

func (r *quizRepository) Count(ctx context.Context, filter models.QuizFilter) (int, error) {
	query := sqlBuilder.Select("COUNT(*)").From("quizzes").Where(live)
	if filter.OwnerID != 0 {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("quiz_repo").Error("failed to count quizzes: %v", err)
		return 0, err
	}
	return n, nil
}

// Delete retires the quiz. Questions, options and attempts stay for history.
func (r *quizRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("deleting quiz: id=%d", id)

	res, err := r.db.ExecContext(ctx, `UPDATE quizzes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to delete quiz: %v", err)
		return err
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (r *quizRepository) QuestionIDs(ctx context.Context, quizID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM questions WHERE quiz_id = ? ORDER BY order_index, id`, quizID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("quiz_repo").Error("failed to list question ids: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *quizRepository) Question(ctx context.Context, id int64) (*models.Question, error) {
	qs, err := r.questions(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &qs[0], nil
}

func (r *quizRepository) QuestionsByIDs(ctx context.Context, ids []int64) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	qs, err := r.questions(ctx, squirrel.Eq{"id": ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// questions loads questions matching pred together with their options.
func (r *quizRepository) questions(ctx context.Context, pred squirrel.Sqlizer) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	stmt, args, err := sqlBuilder.
		Select("id", "quiz_id", "order_index", "text", "explanation").
		From("questions").
		Where(pred).
		OrderBy("order_index", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to query questions: %v", err)
		return nil, err
	}
	var (
		questions []models.Question
		ids       []int64
	)
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.OrderIndex, &q.Text, &q.Explanation); err != nil {
			rows.Close()
			return nil, err
		}
		q.Options = []models.Option{}
		questions = append(questions, q)
		ids = append(ids, q.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return questions, nil
	}

	stmt, args, err = sqlBuilder.
		Select("id", "question_id", "label", "text", "is_correct").
		From("options").
		Where(squirrel.Eq{"question_id": ids}).
		OrderBy("question_id", "label").
		ToSql()
	if err != nil {
		return nil, err
	}
	optRows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to query options: %v", err)
		return nil, err
	}
	defer optRows.Close()

	index := make(map[int64]int, len(questions))
	for i, q := range questions {
		index[q.ID] = i
	}
	for optRows.Next() {
		var o models.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		i := index[o.QuestionID]
		questions[i].Options = append(questions[i].Options, o)
	}
	return questions, optRows.Err()
}
