package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/progression"
	"github.com/vytor/quizforge/internal/repository/sqlite"
	"github.com/vytor/quizforge/internal/services"
	"github.com/vytor/quizforge/internal/testutil"
)

func TestLeaderboardService_RefreshAndTop(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	ctx := context.Background()

	quizzes := sqlite.NewQuizRepository(db)
	attempts := sqlite.NewAttemptRepository(db)
	svc := services.NewLeaderboardService(attempts, sqlite.NewLeaderboardRepository(db))

	quiz, err := quizzes.Create(ctx, testutil.SampleQuiz(ownerID, 2))
	require.NoError(t, err)

	// Wednesday; the week starts Monday 2024-03-04.
	wed := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	complete := func(userID int64, at time.Time, correct int) {
		a := models.QuizAttempt{
			ID:                  uuid.NewString(),
			UserID:              userID,
			QuizID:              quiz.ID,
			Status:              models.AttemptInProgress,
			TotalQuestions:      2,
			SelectedQuestionIDs: []int64{quiz.Questions[0].ID, quiz.Questions[1].ID},
			StartedAt:           at,
		}
		require.NoError(t, attempts.Create(ctx, a))
		for i := 0; i < correct; i++ {
			q := quiz.Questions[i]
			require.NoError(t, attempts.UpsertAnswer(ctx, models.AttemptAnswer{
				AttemptID: a.ID, QuestionID: q.ID, SelectedOptionID: optionID(q, "B"), IsCorrect: true, AnsweredAt: at,
			}))
		}
		_, err := attempts.Complete(ctx, a.ID, 10, at, progression.Score)
		require.NoError(t, err)
	}

	complete(playerID, wed, 2)                   // 100
	complete(playerID, wed.Add(time.Hour), 1)    // 50
	complete(playerID, wed.AddDate(0, 0, -7), 2) // previous week
	complete(ownerID, wed, 1)                    // 50

	require.NoError(t, svc.Refresh(ctx, playerID, wed))
	require.NoError(t, svc.Refresh(ctx, ownerID, wed))

	board, err := svc.Top(ctx, wed, 0)
	require.NoError(t, err)
	assert.True(t, board.PeriodStart.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.True(t, board.PeriodEnd.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
	require.Len(t, board.Entries, 2)
	assert.Equal(t, playerID, board.Entries[0].UserID)
	assert.Equal(t, 150, board.Entries[0].TotalScore)
	assert.Equal(t, 2, board.Entries[0].AttemptsCount)
	assert.Equal(t, 50, board.Entries[1].TotalScore)

	_, err = svc.Top(ctx, wed, 1000)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}
