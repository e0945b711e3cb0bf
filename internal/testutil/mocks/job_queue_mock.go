package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/quizforge/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueImport(jobID string, req models.ImportRequest) error {
	args := m.Called(jobID, req)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueLeaderboardRefresh(userID int64, at time.Time) error {
	args := m.Called(userID, at)
	return args.Error(0)
}
