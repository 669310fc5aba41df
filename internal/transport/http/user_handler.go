package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/domain"
)

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	board := domain.BoardOverall
	if b := vars["board"]; b != "" {
		board = domain.Board(b)
	}
	limit, err := intQueryParam(r, "limit", app.DefaultLeaderboardLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.svc.Leaderboard.Top(r.Context(), board, vars["code"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.svc.History.List(r.Context(), PrincipalFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.svc.History.Get(r.Context(), PrincipalFrom(r.Context()).UserID, mux.Vars(r)["attemptId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) resetWeekly(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Rollover.Run(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		domain.RolloverResult
	}{OK: true, RolloverResult: res})
}
