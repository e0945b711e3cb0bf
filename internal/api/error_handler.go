package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/logger"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  errorPayload `json:"error"`
	Report any          `json:"report,omitempty"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Error: errorPayload{Code: code, Message: message}}
}

func asAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError(err)
	}
	return appErr
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, nil)
}

// writeError renders err with an optional report attached to the body.
func writeError(w http.ResponseWriter, r *http.Request, err error, report any) {
	log := logger.FromContext(r.Context())
	appErr := asAppError(err)

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	body := errorBody(appErr.Code, appErr.Message)
	if appErr.Status >= 500 {
		// Never leak wrapped internals.
		body.Error.Message = "internal server error"
	}
	body.Report = report
	writeJSON(w, appErr.Status, body)
}
