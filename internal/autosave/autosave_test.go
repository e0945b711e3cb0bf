package autosave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/quizforge/internal/autosave"
	"github.com/vytor/quizforge/internal/cache"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/progression"
	"github.com/vytor/quizforge/internal/repository"
	"github.com/vytor/quizforge/internal/repository/sqlite"
	"github.com/vytor/quizforge/internal/testutil"
)

func answers(n int) map[int64]int64 {
	m := make(map[int64]int64, n)
	for i := 1; i <= n; i++ {
		m[int64(i)] = int64(100 + i)
	}
	return m
}

func TestShouldOfferRecovery(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour
	fresh := &models.AutoSaveSnapshot{Answers: answers(8), Timestamp: now.Add(-time.Hour)}

	tests := []struct {
		name   string
		snap   *models.AutoSaveSnapshot
		server int
		want   bool
	}{
		{"more local answers within ttl", fresh, 5, true},
		{"server caught up", fresh, 8, false},
		{"server ahead", fresh, 9, false},
		{"no snapshot", nil, 0, false},
		{"expired", &models.AutoSaveSnapshot{Answers: answers(8), Timestamp: now.Add(-25 * time.Hour)}, 5, false},
		{"exactly ttl old", &models.AutoSaveSnapshot{Answers: answers(8), Timestamp: now.Add(-ttl)}, 5, false},
		{"missing timestamp", &models.AutoSaveSnapshot{Answers: answers(8)}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, autosave.ShouldOfferRecovery(tt.snap, tt.server, now, ttl))
		})
	}
}

type AutosaveSuite struct {
	suite.Suite
	db       *sql.DB
	store    *cache.Memory
	attempts repository.AttemptRepository
	svc      autosave.Service
	quiz     *models.Quiz
	now      time.Time
}

func (s *AutosaveSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.store = cache.NewMemory(cache.WithClock(clock))
	s.attempts = sqlite.NewAttemptRepository(s.db)
	s.svc = autosave.NewService(s.store, s.attempts, 24*time.Hour, autosave.WithClock(clock))

	quiz, err := sqlite.NewQuizRepository(s.db).Create(context.Background(), testutil.SampleQuiz(1, 3))
	s.Require().NoError(err)
	s.quiz = quiz
}

func (s *AutosaveSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *AutosaveSuite) startAttempt(userID int64) models.QuizAttempt {
	ids := make([]int64, 0, len(s.quiz.Questions))
	for _, q := range s.quiz.Questions {
		ids = append(ids, q.ID)
	}
	a := models.QuizAttempt{
		ID:                  uuid.NewString(),
		UserID:              userID,
		QuizID:              s.quiz.ID,
		Status:              models.AttemptInProgress,
		TotalQuestions:      len(ids),
		SelectedQuestionIDs: ids,
		StartedAt:           s.now,
	}
	s.Require().NoError(s.attempts.Create(context.Background(), a))
	return a
}

func (s *AutosaveSuite) TestSaveGetClear() {
	ctx := context.Background()
	a := s.startAttempt(7)

	got, err := s.svc.Get(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Assert().Nil(got)

	saved, err := s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{CurrentQuestionIndex: 1, Answers: answers(2), TimeSpent: 40})
	s.Require().NoError(err)
	s.Assert().Equal(a.ID, saved.AttemptID)
	s.Assert().True(saved.Timestamp.Equal(s.now))

	// Saves overwrite wholesale.
	_, err = s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{CurrentQuestionIndex: 2, Answers: answers(1)})
	s.Require().NoError(err)
	got, err = s.svc.Get(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Assert().Equal(2, got.CurrentQuestionIndex)
	s.Assert().Len(got.Answers, 1)
	s.Assert().Equal(0, got.TimeSpent)

	s.Require().NoError(s.svc.Clear(ctx, 7, a.ID))
	got, err = s.svc.Get(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Assert().Nil(got)
}

func (s *AutosaveSuite) TestSaveClampsFutureTimestamp() {
	ctx := context.Background()
	a := s.startAttempt(7)

	saved, err := s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{Answers: answers(2), Timestamp: s.now.Add(72 * time.Hour)})
	s.Require().NoError(err)
	s.Assert().True(saved.Timestamp.Equal(s.now))

	got, err := s.svc.Get(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Assert().True(got.Timestamp.Equal(s.now))
	s.Assert().False(autosave.ShouldOfferRecovery(got, 0, s.now.Add(25*time.Hour), 24*time.Hour))

	earlier := s.now.Add(-time.Minute)
	saved, err = s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{Answers: answers(2), Timestamp: earlier})
	s.Require().NoError(err)
	s.Assert().True(saved.Timestamp.Equal(earlier), "past timestamps are kept")
}

func (s *AutosaveSuite) TestOwnershipAndState() {
	ctx := context.Background()
	a := s.startAttempt(7)

	_, err := s.svc.Save(ctx, 8, a.ID, models.AutoSaveSnapshot{})
	s.Assert().True(errors.HasCode(err, errors.ErrCodeForbidden))
	_, err = s.svc.Get(ctx, 8, a.ID)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeForbidden))
	s.Assert().True(errors.HasCode(s.svc.Clear(ctx, 8, a.ID), errors.ErrCodeForbidden))

	_, err = s.svc.Save(ctx, 7, "missing", models.AutoSaveSnapshot{})
	s.Assert().True(errors.HasCode(err, errors.ErrCodeNotFound))

	_, err = s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{TimeSpent: -1})
	s.Assert().True(errors.HasCode(err, errors.ErrCodeValidation))

	_, err = s.attempts.Complete(ctx, a.ID, 10, s.now, progression.Score)
	s.Require().NoError(err)
	_, err = s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{})
	s.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidState))
}

func (s *AutosaveSuite) TestSnapshotExpires() {
	ctx := context.Background()
	a := s.startAttempt(7)
	_, err := s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{Answers: answers(1)})
	s.Require().NoError(err)

	s.now = s.now.Add(25 * time.Hour)
	got, err := s.svc.Get(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Assert().Nil(got)
}

func (s *AutosaveSuite) TestRecovery() {
	ctx := context.Background()
	a := s.startAttempt(7)
	q := s.quiz.Questions[0]
	s.Require().NoError(s.attempts.UpsertAnswer(ctx, models.AttemptAnswer{
		AttemptID: a.ID, QuestionID: q.ID, SelectedOptionID: q.Options[1].ID, IsCorrect: true, AnsweredAt: s.now,
	}))

	rec, err := s.svc.Recovery(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Assert().Nil(rec.Snapshot)
	s.Assert().False(rec.Offer)
	s.Assert().Equal(1, rec.ServerAnswers)

	_, err = s.svc.Save(ctx, 7, a.ID, models.AutoSaveSnapshot{Answers: answers(3), Timestamp: s.now.Add(-time.Minute)})
	s.Require().NoError(err)
	rec, err = s.svc.Recovery(ctx, 7, a.ID)
	s.Require().NoError(err)
	s.Assert().True(rec.Offer)
	s.Require().NotNil(rec.Snapshot)
	s.Assert().Len(rec.Snapshot.Answers, 3)

	_, err = s.svc.Recovery(ctx, 9, a.ID)
	s.Assert().True(errors.HasCode(err, errors.ErrCodeForbidden))
}

func TestAutosaveSuite(t *testing.T) {
	suite.Run(t, new(AutosaveSuite))
}

func TestKey(t *testing.T) {
	require.Equal(t, "autosave:abc", autosave.Key("abc"))
}
