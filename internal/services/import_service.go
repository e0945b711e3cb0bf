package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vytor/quizforge/internal/cache"
	"github.com/vytor/quizforge/internal/docx"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/quizparse"
	"github.com/vytor/quizforge/internal/repository"
)

// ImportService turns uploaded documents into persisted quizzes and tracks
// the status of queued imports.
type ImportService interface {
	Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
	// Process runs a queued import and records its outcome under jobID.
	Process(ctx context.Context, jobID string, req models.ImportRequest) error
	Begin(ctx context.Context, jobID string, ownerID int64) (*models.ImportStatus, error)
	Fail(ctx context.Context, jobID string, ownerID int64, cause error)
	Status(ctx context.Context, userID int64, jobID string) (*models.ImportStatus, error)
}

type importService struct {
	quizRepo       repository.QuizRepository
	store          cache.Store
	maxUploadBytes int64
	statusTTL      time.Duration
	now            func() time.Time
}

// NewImportService creates a new ImportService
func NewImportService(quizRepo repository.QuizRepository, store cache.Store, maxUploadBytes int64, statusTTL time.Duration) ImportService {
	return &importService{
		quizRepo:       quizRepo,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		statusTTL:      statusTTL,
		now:            time.Now,
	}
}

func (s *importService) Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"owner_id": req.OwnerID,
		"filename": req.Filename,
	})
	log.Info("importing document: bytes=%d", len(req.Data))

	if err := docx.CheckUpload(req.Filename, int64(len(req.Data)), s.maxUploadBytes); err != nil {
		return nil, err
	}

	doc, err := docx.Convert(req.Data)
	if err != nil {
		log.Warn("document conversion failed: %v", err)
		return nil, errors.NewParseFailureError(err)
	}

	parsed, err := quizparse.Parse(doc)
	if err != nil {
		log.Warn("document parse failed: %v", err)
		return nil, err
	}

	report := parsed.Report
	log.Info("parsed document: template=%s, parsed=%d, valid=%d", parsed.Template, report.TotalParsed, report.TotalValid)
	result := &models.ImportResult{Template: parsed.Template, Report: report}

	if report.TotalValid == 0 {
		return result, errors.NewInvalidInputError(noValidQuestionsMessage(report))
	}

	quiz, err := s.quizRepo.Create(ctx, newQuizFromReport(req.OwnerID, quizTitle(req), parsed))
	if err != nil {
		log.Error("failed to persist quiz: %v", err)
		return nil, errors.NewInternalError(err)
	}
	result.Quiz = quiz

	invalidate(ctx, s.store, nil, quizListPrefix)
	log.Info("quiz imported: id=%d, questions=%d", quiz.ID, quiz.QuestionCount)
	return result, nil
}

func quizTitle(req models.ImportRequest) string {
	if title := strings.TrimSpace(req.Title); title != "" {
		return title
	}
	base := filepath.Base(req.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newQuizFromReport(ownerID int64, title string, parsed *quizparse.Result) models.NewQuiz {
	nq := models.NewQuiz{
		OwnerID:   ownerID,
		Title:     title,
		Template:  string(parsed.Template),
		Questions: make([]models.NewQuestion, 0, len(parsed.Report.Questions)),
	}
	for _, q := range parsed.Report.Questions {
		question := models.NewQuestion{
			OrderIndex:  q.Order,
			Text:        q.Text,
			Explanation: q.Explanation,
			Options:     make([]models.NewOption, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			question.Options = append(question.Options, models.NewOption{
				Label:     o.Label,
				Text:      o.Text,
				IsCorrect: o.Label == q.CorrectAnswer,
			})
		}
		nq.Questions = append(nq.Questions, question)
	}
	return nq
}

func noValidQuestionsMessage(report *quizparse.ParseReport) string {
	parts := make([]string, 0, len(report.Errors))
	for _, e := range report.Errors {
		parts = append(parts, fmt.Sprintf("question %d: %s", e.QuestionOrder, e.Reasons))
	}
	return fmt.Sprintf("no valid questions found (%d parsed): %s", report.TotalParsed, strings.Join(parts, "; "))
}

func (s *importService) Process(ctx context.Context, jobID string, req models.ImportRequest) error {
	log := logger.FromContext(ctx)

	result, err := s.Import(ctx, req)
	status := models.ImportStatus{
		JobID:     jobID,
		OwnerID:   req.OwnerID,
		State:     models.ImportCompleted,
		UpdatedAt: s.now().UTC(),
	}
	if result != nil {
		status.Report = result.Report
	}
	if err != nil {
		status.State = models.ImportFailed
		status.ErrorCode, status.Error = describe(err)
	} else {
		status.QuizID = &result.Quiz.ID
	}

	if saveErr := s.saveStatus(ctx, status); saveErr != nil {
		log.Error("failed to record import status: job_id=%s: %v", jobID, saveErr)
		if err == nil {
			return saveErr
		}
	}
	return err
}

func (s *importService) Begin(ctx context.Context, jobID string, ownerID int64) (*models.ImportStatus, error) {
	status := models.ImportStatus{
		JobID:     jobID,
		OwnerID:   ownerID,
		State:     models.ImportPending,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.saveStatus(ctx, status); err != nil {
		logger.FromContext(ctx).Error("failed to record pending import: job_id=%s: %v", jobID, err)
		return nil, errors.NewInternalError(err)
	}
	return &status, nil
}

func (s *importService) Fail(ctx context.Context, jobID string, ownerID int64, cause error) {
	status := models.ImportStatus{
		JobID:     jobID,
		OwnerID:   ownerID,
		State:     models.ImportFailed,
		UpdatedAt: s.now().UTC(),
	}
	status.ErrorCode, status.Error = describe(cause)
	if err := s.saveStatus(ctx, status); err != nil {
		logger.FromContext(ctx).Warn("failed to record failed import: job_id=%s: %v", jobID, err)
	}
}

func (s *importService) Status(ctx context.Context, userID int64, jobID string) (*models.ImportStatus, error) {
	status, err := cache.GetJSON[models.ImportStatus](ctx, s.store, importKey(jobID))
	if err != nil {
		if stderrors.Is(err, cache.ErrMiss) {
			return nil, errors.NewNotFoundError("import", jobID)
		}
		logger.FromContext(ctx).Error("failed to read import status: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if status.OwnerID != userID {
		return nil, errors.NewForbiddenError("import belongs to another user")
	}
	return &status, nil
}

func (s *importService) saveStatus(ctx context.Context, status models.ImportStatus) error {
	return cache.SetJSON(ctx, s.store, importKey(status.JobID), status, s.statusTTL)
}
