package api

import "net/http"

// handleLeaderboard serves the current week's ranking.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	board, err := s.LeaderboardService.Top(r.Context(), s.now(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
