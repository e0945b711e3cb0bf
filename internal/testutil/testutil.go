package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/db"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// A single connection keeps every statement on the same in-memory database.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ctx := logger.NewContext(context.Background(), logger.Discard())
	require.NoError(t, db.Migrate(ctx, sqlDB), "failed to apply migrations")

	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SampleQuiz returns a quiz payload with n questions. Question i has options
// A and B with B correct; the explanation names the question.
func SampleQuiz(ownerID int64, n int) models.NewQuiz {
	q := models.NewQuiz{OwnerID: ownerID, Title: "Sample quiz", Template: "EXPLICIT_ANSWER"}
	for i := 1; i <= n; i++ {
		q.Questions = append(q.Questions, models.NewQuestion{
			OrderIndex:  i,
			Text:        "Question " + string(rune('0'+i%10)),
			Explanation: "because",
			Options: []models.NewOption{
				{Label: "A", Text: "wrong"},
				{Label: "B", Text: "right", IsCorrect: true},
			},
		})
	}
	return q
}
