package services

import (
	"context"
	"database/sql"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/jobs"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/progression"
	"github.com/vytor/quizforge/internal/repository"
	"github.com/vytor/quizforge/internal/shuffle"
)

// AttemptService drives the attempt lifecycle:
// IN_PROGRESS <-> PAUSED, IN_PROGRESS -> COMPLETED (terminal).
type AttemptService interface {
	Start(ctx context.Context, userID, quizID int64, cfg models.StartConfig) (*models.StartResult, error)
	Answer(ctx context.Context, userID int64, attemptID string, questionID, optionID int64) (*models.AnswerFeedback, error)
	Pause(ctx context.Context, userID int64, attemptID string) (*models.QuizAttempt, error)
	Resume(ctx context.Context, userID int64, attemptID string) (*models.QuizAttempt, error)
	TrackTabSwitch(ctx context.Context, userID int64, attemptID string) (*models.TabSwitchResult, error)
	Submit(ctx context.Context, userID int64, attemptID string, timeSpent int) (*models.SubmitResult, error)
	Get(ctx context.Context, userID int64, attemptID string) (*models.AttemptView, error)
	Review(ctx context.Context, userID int64, attemptID string) (*models.AttemptReview, error)
	ListMine(ctx context.Context, userID int64, params models.AttemptListParams) (*models.AttemptPage, error)
}

// SnapshotClearer drops the auto-save snapshot of an attempt.
type SnapshotClearer interface {
	Delete(ctx context.Context, attemptID string) error
}

type attemptService struct {
	quizRepo     repository.QuizRepository
	attemptRepo  repository.AttemptRepository
	progressRepo repository.ProgressRepository
	jobQueue     jobs.JobQueue
	snapshots    SnapshotClearer
	newRand      func() *rand.Rand
	now          func() time.Time
}

type AttemptOption func(*attemptService)

// WithRandSource overrides how subset selection obtains its random source.
// The factory is called once per Start.
func WithRandSource(newRand func() *rand.Rand) AttemptOption {
	return func(s *attemptService) {
		s.newRand = newRand
	}
}

func WithAttemptClock(now func() time.Time) AttemptOption {
	return func(s *attemptService) {
		s.now = now
	}
}

func defaultRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	progressRepo repository.ProgressRepository,
	jobQueue jobs.JobQueue,
	snapshots SnapshotClearer,
	opts ...AttemptOption,
) AttemptService {
	s := &attemptService{
		quizRepo:     quizRepo,
		attemptRepo:  attemptRepo,
		progressRepo: progressRepo,
		jobQueue:     jobQueue,
		snapshots:    snapshots,
		newRand:      defaultRand,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *attemptService) ownedAttempt(ctx context.Context, userID int64, attemptID string) (*models.QuizAttempt, error) {
	attempt, err := s.attemptRepo.Get(ctx, attemptID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("attempt", attemptID)
		}
		logger.FromContext(ctx).Error("failed to get attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempt.UserID != userID {
		return nil, errors.NewForbiddenError("attempt belongs to another user")
	}
	return attempt, nil
}

func (s *attemptService) Start(ctx context.Context, userID, quizID int64, cfg models.StartConfig) (*models.StartResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id": userID,
		"quiz_id": quizID,
	})

	if cfg.QuestionCount != nil && *cfg.QuestionCount < 1 {
		return nil, errors.NewValidationError("questionCount", "must be at least 1")
	}

	if existing, err := s.attemptRepo.FindActive(ctx, userID, quizID); err == nil {
		log.Debug("returning active attempt: id=%s", existing.ID)
		return &models.StartResult{Attempt: existing, IsResumed: true}, nil
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewInternalError(err)
	}

	if _, err := s.quizRepo.Get(ctx, quizID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("quiz", quizID)
		}
		return nil, errors.NewInternalError(err)
	}
	ids, err := s.quizRepo.QuestionIDs(ctx, quizID)
	if err != nil {
		log.Error("failed to load question ids: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if len(ids) == 0 {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("quiz %d has no questions", quizID))
	}

	selected := ids
	if cfg.QuestionCount != nil {
		selected = shuffle.SelectSubset(s.newRand(), ids, *cfg.QuestionCount)
	}

	attempt := models.QuizAttempt{
		ID:                  uuid.NewString(),
		UserID:              userID,
		QuizID:              quizID,
		Status:              models.AttemptInProgress,
		TotalQuestions:      len(selected),
		SelectedQuestionIDs: selected,
		Config:              cfg.Snapshot(),
		StartedAt:           s.now().UTC(),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			// Lost a race with a concurrent start; hand back the winner.
			existing, findErr := s.attemptRepo.FindActive(ctx, userID, quizID)
			if findErr == nil {
				log.Info("concurrent start resolved to attempt %s", existing.ID)
				return &models.StartResult{Attempt: existing, IsResumed: true}, nil
			}
			err = findErr
		}
		log.Error("failed to create attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("attempt started: id=%s, questions=%d", attempt.ID, attempt.TotalQuestions)
	return &models.StartResult{Attempt: &attempt}, nil
}

func (s *attemptService) Answer(ctx context.Context, userID int64, attemptID string, questionID, optionID int64) (*models.AnswerFeedback, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	question, err := s.quizRepo.Question(ctx, questionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("question", questionID)
		}
		log.Error("failed to get question: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("cannot answer an attempt that is %s", attempt.Status))
	}
	if question.QuizID != attempt.QuizID || !attempt.HasQuestion(question.ID) {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("question %d is not part of this attempt", questionID))
	}
	option := question.Option(optionID)
	if option == nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("option %d does not belong to question %d", optionID, questionID))
	}
	correct := question.CorrectOption()
	if correct == nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("question %d has no correct option", questionID))
	}

	answer := models.AttemptAnswer{
		AttemptID:        attemptID,
		QuestionID:       questionID,
		SelectedOptionID: optionID,
		IsCorrect:        option.ID == correct.ID,
		AnsweredAt:       s.now().UTC(),
	}
	if err := s.attemptRepo.UpsertAnswer(ctx, answer); err != nil {
		if stderrors.Is(err, repository.ErrStaleState) {
			return nil, errors.NewInvalidStateError("attempt is no longer in progress")
		}
		log.Error("failed to store answer: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Debug("answer recorded: question_id=%d, correct=%t", questionID, answer.IsCorrect)

	shown := *correct
	if attempt.Config.ShuffleOptions {
		presented, err := s.presented(ctx, attempt)
		if err != nil {
			log.Error("failed to load presentation: %v", err)
			return nil, errors.NewInternalError(err)
		}
		if q, ok := presented[questionID]; ok {
			if o := q.Option(correct.ID); o != nil {
				shown = *o
			}
		}
	}
	return &models.AnswerFeedback{
		QuestionID:       questionID,
		SelectedOptionID: optionID,
		IsCorrect:        answer.IsCorrect,
		CorrectOption:    shown,
		Explanation:      question.Explanation,
	}, nil
}

func (s *attemptService) Pause(ctx context.Context, userID int64, attemptID string) (*models.QuizAttempt, error) {
	return s.transition(ctx, userID, attemptID, "pause", s.attemptRepo.Pause)
}

func (s *attemptService) Resume(ctx context.Context, userID int64, attemptID string) (*models.QuizAttempt, error) {
	return s.transition(ctx, userID, attemptID, "resume", s.attemptRepo.Resume)
}

func (s *attemptService) transition(ctx context.Context, userID int64, attemptID, action string, apply func(context.Context, string, time.Time) error) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, attemptID, s.now().UTC()); err != nil {
		if stderrors.Is(err, repository.ErrStaleState) {
			return nil, errors.NewInvalidStateError(fmt.Sprintf("cannot %s an attempt that is %s", action, attempt.Status))
		}
		log.Error("failed to %s attempt: %v", action, err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("attempt %s", action)
	return s.reload(ctx, attemptID)
}

func (s *attemptService) reload(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	attempt, err := s.attemptRepo.Get(ctx, attemptID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to reload attempt %s: %v", attemptID, err)
		return nil, errors.NewInternalError(err)
	}
	return attempt, nil
}

func (s *attemptService) TrackTabSwitch(ctx context.Context, userID int64, attemptID string) (*models.TabSwitchResult, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	if _, err := s.ownedAttempt(ctx, userID, attemptID); err != nil {
		return nil, err
	}
	count, err := s.attemptRepo.RecordTabSwitch(ctx, attemptID)
	if err != nil {
		if stderrors.Is(err, repository.ErrStaleState) {
			return nil, errors.NewInvalidStateError("attempt is already completed")
		}
		log.Error("failed to record tab switch: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Warn("tab switch recorded: count=%d", count)
	return &models.TabSwitchResult{TabSwitchCount: count, SuspiciousActivity: true}, nil
}

func (s *attemptService) Submit(ctx context.Context, userID int64, attemptID string, timeSpent int) (*models.SubmitResult, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	if timeSpent < 0 {
		return nil, errors.NewValidationError("timeSpent", "must not be negative")
	}
	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("cannot submit an attempt that is %s", attempt.Status))
	}

	done, err := s.attemptRepo.Complete(ctx, attemptID, timeSpent, s.now().UTC(), progression.Score)
	if err != nil {
		if stderrors.Is(err, repository.ErrStaleState) {
			return nil, errors.NewInvalidStateError("attempt is no longer in progress")
		}
		log.Error("failed to complete attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("attempt submitted: correct=%d/%d, score=%d", done.CorrectAnswers, attempt.TotalQuestions, done.Score)

	result := &models.SubmitResult{XPGained: progression.XPForScore(done.Score)}

	// Side effects below never fail the submission.
	progress, err := s.progressRepo.Update(ctx, userID, func(p models.UserProgress) models.UserProgress {
		return progression.Apply(p, done.Score, done.CompletedAt)
	})
	if err != nil {
		log.Warn("failed to update user progress: %v", err)
	} else {
		result.Progress = progress
	}
	if err := s.jobQueue.EnqueueLeaderboardRefresh(userID, done.CompletedAt); err != nil {
		log.Warn("failed to enqueue leaderboard refresh: %v", err)
	}
	if err := s.snapshots.Delete(ctx, attemptID); err != nil {
		log.Warn("failed to clear autosave snapshot: %v", err)
	}

	completed, err := s.reload(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	result.Attempt = completed
	return result, nil
}

// presentationRand derives the read-time shuffle from the attempt id so
// every read of the same attempt presents the same order.
func presentationRand(attemptID string) *rand.Rand {
	id, err := uuid.Parse(attemptID)
	if err != nil {
		return defaultRand()
	}
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(id[:8]), binary.BigEndian.Uint64(id[8:])))
}

// presentation loads the attempt's questions in the order the player sees
// them, with options shuffled and relabelled the same way on every read.
func (s *attemptService) presentation(ctx context.Context, attempt *models.QuizAttempt) ([]models.Question, error) {
	questions, err := s.quizRepo.QuestionsByIDs(ctx, attempt.SelectedQuestionIDs)
	if err != nil {
		return nil, err
	}
	r := presentationRand(attempt.ID)
	if attempt.Config.ShuffleQuestions {
		questions = shuffle.Questions(r, questions)
	}
	if attempt.Config.ShuffleOptions {
		for i := range questions {
			questions[i].Options = shuffle.Options(r, questions[i].Options)
		}
	}
	return questions, nil
}

// presented indexes the presentation by question id.
func (s *attemptService) presented(ctx context.Context, attempt *models.QuizAttempt) (map[int64]models.Question, error) {
	questions, err := s.presentation(ctx, attempt)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID, nil
}

func (s *attemptService) Get(ctx context.Context, userID int64, attemptID string) (*models.AttemptView, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	questions, err := s.presentation(ctx, attempt)
	if err != nil {
		log.Error("failed to load questions: %v", err)
		return nil, errors.NewInternalError(err)
	}
	answers, err := s.attemptRepo.Answers(ctx, attemptID)
	if err != nil {
		log.Error("failed to load answers: %v", err)
		return nil, errors.NewInternalError(err)
	}
	byQuestion := make(map[int64]models.AttemptAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	reveal := attempt.Status == models.AttemptCompleted
	view := &models.AttemptView{
		Attempt:   attempt,
		Questions: make([]models.QuestionView, 0, len(questions)),
		Answered:  len(answers),
	}
	for _, q := range questions {
		qv := models.QuestionView{ID: q.ID, Text: q.Text, Options: make([]models.OptionView, 0, len(q.Options))}
		for _, o := range q.Options {
			ov := models.OptionView{ID: o.ID, Label: o.Label, Text: o.Text}
			if reveal {
				ov.IsCorrect = &o.IsCorrect
			}
			qv.Options = append(qv.Options, ov)
		}
		if a, ok := byQuestion[q.ID]; ok {
			qv.SelectedOptionID = &a.SelectedOptionID
			if reveal {
				qv.IsCorrect = &a.IsCorrect
			}
		}
		if reveal {
			qv.Explanation = q.Explanation
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}

func (s *attemptService) Review(ctx context.Context, userID int64, attemptID string) (*models.AttemptReview, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptCompleted {
		return nil, errors.NewInvalidStateError("review is only available for completed attempts")
	}

	answers, err := s.attemptRepo.Answers(ctx, attemptID)
	if err != nil {
		log.Error("failed to load answers: %v", err)
		return nil, errors.NewInternalError(err)
	}
	byQuestion := make(map[int64]models.AttemptAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	presented, err := s.presented(ctx, attempt)
	if err != nil {
		log.Error("failed to load questions: %v", err)
		return nil, errors.NewInternalError(err)
	}

	review := &models.AttemptReview{Attempt: attempt, Items: make([]models.ReviewItem, 0, len(answers))}
	for _, id := range attempt.SelectedQuestionIDs {
		a, answered := byQuestion[id]
		q, ok := presented[id]
		if !answered || !ok {
			continue
		}
		correct := q.CorrectOption()
		if correct == nil {
			log.Error("question without correct option: question_id=%d", q.ID)
			return nil, errors.NewInvalidInputError(fmt.Sprintf("question %d has no correct option", q.ID))
		}
		item := models.ReviewItem{
			QuestionID:    q.ID,
			Text:          q.Text,
			Explanation:   q.Explanation,
			CorrectOption: *correct,
			IsCorrect:     a.IsCorrect,
			Options:       q.Options,
		}
		if selected := q.Option(a.SelectedOptionID); selected != nil {
			item.SelectedOption = *selected
		}
		review.Items = append(review.Items, item)
	}
	return review, nil
}

func (s *attemptService) ListMine(ctx context.Context, userID int64, params models.AttemptListParams) (*models.AttemptPage, error) {
	log := logger.FromContext(ctx)

	page, limit, err := pagination(params.Page, params.Limit)
	if err != nil {
		return nil, err
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, errors.NewValidationError("status", fmt.Sprintf("unknown status %q", params.Status))
	}

	filter := models.AttemptFilter{
		UserID: userID,
		QuizID: params.QuizID,
		Status: params.Status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	items, err := s.attemptRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	total, err := s.attemptRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &models.AttemptPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}
