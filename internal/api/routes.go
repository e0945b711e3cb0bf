package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	// Build the validator before serving so handlers never race on it.
	s.validation()

	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(userMiddleware)

		r.Post("/quizzes/import", s.handleImport)
		r.Get("/imports/{id}", s.handleImportStatus)
		r.Get("/quizzes", s.handleListQuizzes)
		r.Get("/quizzes/{id}", s.handleGetQuiz)
		r.Delete("/quizzes/{id}", s.handleDeleteQuiz)
		r.Post("/quizzes/{id}/attempts", s.handleStartAttempt)

		r.Get("/attempts", s.handleListAttempts)
		r.Route("/attempts/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetAttempt)
			r.Post("/answers", s.handleAnswer)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/tab-switch", s.handleTabSwitch)
			r.Post("/submit", s.handleSubmit)
			r.Get("/review", s.handleReview)
			r.Get("/recovery", s.handleRecovery)
			r.Put("/autosave", s.handleSaveSnapshot)
			r.Get("/autosave", s.handleGetSnapshot)
			r.Delete("/autosave", s.handleClearSnapshot)
		})

		r.Get("/leaderboard", s.handleLeaderboard)
	})
	return r
}
