// Package autosave stores the client's in-progress attempt state in the
// ephemeral cache and decides when that state should be offered back on resume.
package autosave

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/vytor/quizforge/internal/cache"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/repository"
)

const keyPrefix = "autosave:"

// DefaultTTL is how long an abandoned snapshot survives.
const DefaultTTL = 24 * time.Hour

func Key(attemptID string) string {
	return keyPrefix + attemptID
}

// Recovery is what the client needs to decide between its local snapshot and
// the server's answers.
type Recovery struct {
	Snapshot      *models.AutoSaveSnapshot `json:"snapshot"`
	ServerAnswers int                      `json:"server_answers"`
	Offer         bool                     `json:"offer"`
}

// ShouldOfferRecovery is true when the snapshot holds strictly more answers
// than the server and was taken less than ttl before now.
func ShouldOfferRecovery(snap *models.AutoSaveSnapshot, serverAnswers int, now time.Time, ttl time.Duration) bool {
	if snap == nil || snap.Timestamp.IsZero() {
		return false
	}
	if len(snap.Answers) <= serverAnswers {
		return false
	}
	return now.Sub(snap.Timestamp) < ttl
}

type Service interface {
	Save(ctx context.Context, userID int64, attemptID string, snap models.AutoSaveSnapshot) (*models.AutoSaveSnapshot, error)
	// Get returns nil without error when no snapshot is stored.
	Get(ctx context.Context, userID int64, attemptID string) (*models.AutoSaveSnapshot, error)
	Clear(ctx context.Context, userID int64, attemptID string) error
	Recovery(ctx context.Context, userID int64, attemptID string) (*Recovery, error)
	// Delete drops the snapshot without an ownership check.
	Delete(ctx context.Context, attemptID string) error
}

type service struct {
	store    cache.Store
	attempts repository.AttemptRepository
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService creates a Service. A non-positive ttl uses DefaultTTL.
func NewService(store cache.Store, attempts repository.AttemptRepository, ttl time.Duration, opts ...Option) Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &service{
		store:    store,
		attempts: attempts,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ownedAttempt(ctx context.Context, userID int64, attemptID string) (*models.QuizAttempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("attempt", attemptID)
		}
		logger.FromContext(ctx).Error("failed to load attempt for autosave: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempt.UserID != userID {
		return nil, errors.NewForbiddenError("attempt belongs to another user")
	}
	return attempt, nil
}

func (s *service) Save(ctx context.Context, userID int64, attemptID string, snap models.AutoSaveSnapshot) (*models.AutoSaveSnapshot, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == models.AttemptCompleted {
		return nil, errors.NewInvalidStateError("cannot auto-save a completed attempt")
	}
	if snap.TimeSpent < 0 {
		return nil, errors.NewValidationError("timeSpent", "must not be negative")
	}

	snap.AttemptID = attemptID
	// Missing and future timestamps become the save time.
	if now := s.now().UTC(); snap.Timestamp.IsZero() || snap.Timestamp.After(now) {
		snap.Timestamp = now
	}
	if snap.Answers == nil {
		snap.Answers = map[int64]int64{}
	}

	if err := cache.SetJSON(ctx, s.store, Key(attemptID), snap, s.ttl); err != nil {
		log.Error("failed to store snapshot: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Debug("snapshot saved: answers=%d, index=%d", len(snap.Answers), snap.CurrentQuestionIndex)
	return &snap, nil
}

func (s *service) Get(ctx context.Context, userID int64, attemptID string) (*models.AutoSaveSnapshot, error) {
	if _, err := s.ownedAttempt(ctx, userID, attemptID); err != nil {
		return nil, err
	}
	return s.load(ctx, attemptID)
}

func (s *service) load(ctx context.Context, attemptID string) (*models.AutoSaveSnapshot, error) {
	snap, err := cache.GetJSON[models.AutoSaveSnapshot](ctx, s.store, Key(attemptID))
	if err != nil {
		if stderrors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		logger.FromContext(ctx).Error("failed to read snapshot: attempt_id=%s: %v", attemptID, err)
		return nil, errors.NewInternalError(err)
	}
	return &snap, nil
}

func (s *service) Clear(ctx context.Context, userID int64, attemptID string) error {
	if _, err := s.ownedAttempt(ctx, userID, attemptID); err != nil {
		return err
	}
	if err := s.Delete(ctx, attemptID); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, attemptID string) error {
	logger.FromContext(ctx).Debug("clearing snapshot: attempt_id=%s", attemptID)
	return s.store.Delete(ctx, Key(attemptID))
}

func (s *service) Recovery(ctx context.Context, userID int64, attemptID string) (*Recovery, error) {
	log := logger.FromContext(ctx).WithField("attempt_id", attemptID)

	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	serverAnswers, err := s.attempts.CountAnswers(ctx, attemptID)
	if err != nil {
		log.Error("failed to count answers: %v", err)
		return nil, errors.NewInternalError(err)
	}

	rec := &Recovery{Snapshot: snap, ServerAnswers: serverAnswers}
	if attempt.Status != models.AttemptCompleted {
		rec.Offer = ShouldOfferRecovery(snap, serverAnswers, s.now(), s.ttl)
	}
	log.Debug("recovery check: server_answers=%d, offer=%t", serverAnswers, rec.Offer)
	return rec, nil
}
