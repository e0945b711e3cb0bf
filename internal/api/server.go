package api

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/quizforge/internal/autosave"
	"github.com/vytor/quizforge/internal/services"
)

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	QuizService        services.QuizService
	AttemptService     services.AttemptService
	LeaderboardService services.LeaderboardService
	AutoSave           autosave.Service
	MaxUploadBytes     int64
	ReadyChecks        map[string]ReadyCheck
	Now                func() time.Time

	validate *validator.Validate
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) validation() *validator.Validate {
	if s.validate == nil {
		s.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return s.validate
}
