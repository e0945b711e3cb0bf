package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/quizforge/internal/cache"
	"github.com/vytor/quizforge/internal/docx"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/jobs"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

// QuizService handles the quiz catalog and document imports
type QuizService interface {
	Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
	EnqueueImport(ctx context.Context, req models.ImportRequest) (*models.ImportStatus, error)
	ImportStatus(ctx context.Context, userID int64, jobID string) (*models.ImportStatus, error)
	// GetQuiz returns the quiz with its questions. Answers and explanations
	// are only included for the owner.
	GetQuiz(ctx context.Context, userID, id int64) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, page, limit int) (*models.QuizPage, error)
	DeleteQuiz(ctx context.Context, ownerID, id int64) error
}

type quizService struct {
	quizRepo       repository.QuizRepository
	importer       ImportService
	jobQueue       jobs.JobQueue
	store          cache.Store
	cacheTTL       time.Duration
	maxUploadBytes int64
}

// NewQuizService creates a new QuizService
func NewQuizService(quizRepo repository.QuizRepository, importer ImportService, jobQueue jobs.JobQueue, store cache.Store, cacheTTL time.Duration, maxUploadBytes int64) QuizService {
	return &quizService{
		quizRepo:       quizRepo,
		importer:       importer,
		jobQueue:       jobQueue,
		store:          store,
		cacheTTL:       cacheTTL,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *quizService) Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	return s.importer.Import(ctx, req)
}

func (s *quizService) EnqueueImport(ctx context.Context, req models.ImportRequest) (*models.ImportStatus, error) {
	log := logger.FromContext(ctx)

	// Reject obviously bad uploads before they take a queue slot.
	if err := docx.CheckUpload(req.Filename, int64(len(req.Data)), s.maxUploadBytes); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	status, err := s.importer.Begin(ctx, jobID, req.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := s.jobQueue.EnqueueImport(jobID, req); err != nil {
		log.Error("failed to enqueue import: job_id=%s: %v", jobID, err)
		s.importer.Fail(ctx, jobID, req.OwnerID, err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("import queued: job_id=%s, owner_id=%d", jobID, req.OwnerID)
	return status, nil
}

func (s *quizService) ImportStatus(ctx context.Context, userID int64, jobID string) (*models.ImportStatus, error) {
	return s.importer.Status(ctx, userID, jobID)
}

func (s *quizService) GetQuiz(ctx context.Context, userID, id int64) (*models.Quiz, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting quiz: id=%d", id)

	key := quizDetailKey(id)
	quiz, err := cache.GetJSON[models.Quiz](ctx, s.store, key)
	if err != nil {
		if !stderrors.Is(err, cache.ErrMiss) {
			log.Warn("quiz cache read failed, loading from storage: %v", err)
		}
		loaded, err := s.quizRepo.GetWithQuestions(ctx, id)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return nil, errors.NewNotFoundError("quiz", id)
			}
			log.Error("failed to get quiz: %v", err)
			return nil, errors.NewInternalError(err)
		}
		quiz = *loaded
		if err := cache.SetJSON(ctx, s.store, key, quiz, s.cacheTTL); err != nil {
			log.Warn("failed to cache quiz %d: %v", id, err)
		}
	}

	if quiz.OwnerID != userID {
		quiz = redactAnswers(quiz)
	}
	return &quiz, nil
}

func redactAnswers(q models.Quiz) models.Quiz {
	questions := make([]models.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Explanation = ""
		opts := make([]models.Option, len(question.Options))
		for j, o := range question.Options {
			o.IsCorrect = false
			opts[j] = o
		}
		question.Options = opts
		questions[i] = question
	}
	q.Questions = questions
	return q
}

func (s *quizService) ListQuizzes(ctx context.Context, page, limit int) (*models.QuizPage, error) {
	log := logger.FromContext(ctx)

	page, limit, err := pagination(page, limit)
	if err != nil {
		return nil, err
	}

	key := quizListKey(page, limit)
	cached, err := cache.GetJSON[models.QuizPage](ctx, s.store, key)
	if err == nil {
		log.Debug("quiz list cache hit: page=%d, limit=%d", page, limit)
		return &cached, nil
	}
	if !stderrors.Is(err, cache.ErrMiss) {
		log.Warn("quiz list cache read failed: %v", err)
	}

	filter := models.QuizFilter{Limit: limit, Offset: (page - 1) * limit}
	items, err := s.quizRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list quizzes: %v", err)
		return nil, errors.NewInternalError(err)
	}
	total, err := s.quizRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count quizzes: %v", err)
		return nil, errors.NewInternalError(err)
	}

	result := &models.QuizPage{Items: items, Total: total, Page: page, Limit: limit}
	if err := cache.SetJSON(ctx, s.store, key, result, s.cacheTTL); err != nil {
		log.Warn("failed to cache quiz list: %v", err)
	}
	return result, nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, ownerID, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting quiz: id=%d, owner_id=%d", id, ownerID)

	quiz, err := s.quizRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("quiz", id)
		}
		log.Error("failed to get quiz: %v", err)
		return errors.NewInternalError(err)
	}
	if quiz.OwnerID != ownerID {
		return errors.NewForbiddenError("only the owner can delete a quiz")
	}

	if err := s.quizRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("quiz", id)
		}
		log.Error("failed to delete quiz: %v", err)
		return errors.NewInternalError(err)
	}

	invalidate(ctx, s.store, []string{quizDetailKey(id)}, quizListPrefix)
	log.Info("quiz deleted: id=%d", id)
	return nil
}
