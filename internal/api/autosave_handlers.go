package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/quizforge/internal/models"
)

type snapshotRequest struct {
	CurrentQuestionIndex int             `json:"currentQuestionIndex" validate:"min=0"`
	Answers              map[int64]int64 `json:"answers"`
	TimeSpent            int             `json:"timeSpent" validate:"min=0"`
	FeedbackHistory      map[int64]bool  `json:"feedbackHistory"`
	Timestamp            time.Time       `json:"timestamp"`
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	attemptID := chi.URLParam(r, "id")
	snap := models.AutoSaveSnapshot{
		AttemptID:            attemptID,
		CurrentQuestionIndex: req.CurrentQuestionIndex,
		Answers:              req.Answers,
		TimeSpent:            req.TimeSpent,
		FeedbackHistory:      req.FeedbackHistory,
		Timestamp:            req.Timestamp,
	}
	saved, err := s.AutoSave.Save(r.Context(), userFromContext(r.Context()), attemptID, snap)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleGetSnapshot answers 204 when nothing is stored.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.AutoSave.Get(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleClearSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.AutoSave.Clear(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	rec, err := s.AutoSave.Recovery(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
