package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/domain"
)

type submitRequest struct {
	ThemeID    string                    `json:"themeId" validate:"required"`
	Difficulty string                    `json:"difficulty" validate:"required"`
	Answers    []domain.AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
	StartDate  *time.Time                `json:"startDate"`
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	session, err := h.svc.Quiz.Start(r.Context(), vars["themeId"], vars["difficulty"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// submitQuiz grades for the authenticated user; any user id in the body is ignored.
func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Quiz.Submit(r.Context(), app.SubmitRequest{
		UserID:     PrincipalFrom(r.Context()).UserID,
		ThemeID:    req.ThemeID,
		Difficulty: req.Difficulty,
		Answers:    req.Answers,
		StartedAt:  req.StartDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type themeRequest struct {
	Type        string                `json:"type" validate:"required"`
	Description string                `json:"description"`
	Levels      *domain.LevelSettings `json:"levels"`
}

type themePatchRequest struct {
	Type        *string               `json:"type"`
	Description *string               `json:"description"`
	Levels      *domain.LevelSettings `json:"levels"`
}

func (h *Handler) listThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.svc.Themes.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

func (h *Handler) getTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.svc.Themes.Get(r.Context(), mux.Vars(r)["themeId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

func (h *Handler) createTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	theme, err := h.svc.Themes.Create(r.Context(), app.ThemeInput{
		Type:        domain.ThemeType(req.Type),
		Description: req.Description,
		Levels:      req.Levels,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

func (h *Handler) updateTheme(w http.ResponseWriter, r *http.Request) {
	var req themePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := app.ThemePatch{Description: req.Description, Levels: req.Levels}
	if req.Type != nil {
		t := domain.ThemeType(*req.Type)
		patch.Type = &t
	}
	theme, err := h.svc.Themes.Update(r.Context(), mux.Vars(r)["themeId"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

func (h *Handler) deleteTheme(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Themes.Delete(r.Context(), mux.Vars(r)["themeId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
