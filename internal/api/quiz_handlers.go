package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/models"
)

// multipartOverhead leaves room for form fields around the uploaded file.
const multipartOverhead = 64 << 10

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := s.readUpload(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log = log.WithFields(map[string]any{"filename": req.Filename, "bytes": len(req.Data)})

	if queryBool(r, "async") {
		status, err := s.QuizService.EnqueueImport(ctx, req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		log.Info("import queued: job_id=%s", status.JobID)
		writeJSON(w, http.StatusAccepted, status)
		return
	}

	result, err := s.QuizService.Import(ctx, req)
	if err != nil {
		var report any
		if result != nil && result.Report != nil {
			report = result.Report
		}
		writeError(w, r, err, report)
		return
	}
	log.Info("quiz imported: quiz_id=%d, template=%s", result.Quiz.ID, result.Template)
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (models.ImportRequest, error) {
	if s.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes+multipartOverhead)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return models.ImportRequest{}, errors.NewInvalidInputError(fmt.Sprintf("upload exceeds %d bytes", s.MaxUploadBytes))
		}
		return models.ImportRequest{}, errors.NewBadRequestError("multipart field \"file\" is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.ImportRequest{}, errors.NewBadRequestError("failed to read upload: " + err.Error())
	}
	return models.ImportRequest{
		OwnerID:  userFromContext(r.Context()),
		Title:    strings.TrimSpace(r.FormValue("title")),
		Filename: header.Filename,
		Data:     data,
	}, nil
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.QuizService.ImportStatus(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
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
	result, err := s.QuizService.ListQuizzes(r.Context(), page, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := urlInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	quiz, err := s.QuizService.GetQuiz(r.Context(), userFromContext(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := urlInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.QuizService.DeleteQuiz(r.Context(), userFromContext(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
