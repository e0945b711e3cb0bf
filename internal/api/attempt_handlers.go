package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
)

type startAttemptRequest struct {
	QuestionCount    *int  `json:"questionCount" validate:"omitempty,min=1"`
	ShuffleQuestions *bool `json:"shuffleQuestions"`
	ShuffleOptions   *bool `json:"shuffleOptions"`
	ReviewMode       *bool `json:"reviewMode"`
}

type answerRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
	OptionID   int64 `json:"optionId" validate:"required,gt=0"`
}

type submitRequest struct {
	TimeSpent int `json:"timeSpent" validate:"min=0"`
}

func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, err := urlInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req startAttemptRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	cfg := models.StartConfig{
		QuestionCount:    req.QuestionCount,
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleOptions:   req.ShuffleOptions,
		ReviewMode:       req.ReviewMode,
	}
	result, err := s.AttemptService.Start(r.Context(), userFromContext(r.Context()), quizID, cfg)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.IsResumed {
		status = http.StatusOK
	}
	logger.FromContext(r.Context()).Info("attempt started: attempt_id=%s, resumed=%t", result.Attempt.ID, result.IsResumed)
	writeJSON(w, status, result)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	quizID, err := queryInt(r, "quiz_id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	params := models.AttemptListParams{
		QuizID: int64(quizID),
		Status: models.AttemptStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}
	result, err := s.AttemptService.ListMine(r.Context(), userFromContext(r.Context()), params)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := s.AttemptService.Get(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	feedback, err := s.AttemptService.Answer(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), req.QuestionID, req.OptionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.AttemptService.Pause(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.AttemptService.Resume(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (s *Server) handleTabSwitch(w http.ResponseWriter, r *http.Request) {
	result, err := s.AttemptService.TrackTabSwitch(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	result, err := s.AttemptService.Submit(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), req.TimeSpent)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.AttemptService.Review(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
