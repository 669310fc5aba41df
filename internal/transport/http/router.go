package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"heritage-quiz-service/internal/app"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Quiz        *app.QuizService
	Themes      *app.ThemeService
	Leaderboard *app.LeaderboardService
	History     *app.HistoryService
	Rollover    *app.RolloverService
}

type Handler struct {
	svc    Services
	auth   *Authenticator
	logger zerolog.Logger
}

func NewHandler(svc Services, auth *Authenticator, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, auth: auth, logger: logger}
}

// Router registers every route and wraps it with request logging and CORS.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.requestLogger)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/quiz", h.listThemes).Methods(http.MethodGet)
	api.HandleFunc("/quiz", h.auth.RequireAdmin(h.createTheme)).Methods(http.MethodPost)
	api.HandleFunc("/quiz/submit", h.auth.RequireAuth(h.submitQuiz)).Methods(http.MethodPost)
	api.HandleFunc("/quiz/start/{themeId}/{difficulty}", h.auth.RequireAuth(h.startQuiz)).Methods(http.MethodGet)
	api.HandleFunc("/quiz/{themeId}", h.auth.RequireAuth(h.getTheme)).Methods(http.MethodGet)
	api.HandleFunc("/quiz/{themeId}", h.auth.RequireAdmin(h.updateTheme)).Methods(http.MethodPatch)
	api.HandleFunc("/quiz/{themeId}", h.auth.RequireAdmin(h.deleteTheme)).Methods(http.MethodDelete)

	api.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/province/{code}", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/{board:weekly|lastweekly}", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/{board:weekly|lastweekly}/province/{code}", h.leaderboard).Methods(http.MethodGet)

	api.HandleFunc("/user/quizattempt", h.auth.RequireAuth(h.listAttempts)).Methods(http.MethodGet)
	api.HandleFunc("/user/quizattempt/{attemptId}", h.auth.RequireAuth(h.getAttempt)).Methods(http.MethodGet)

	api.HandleFunc("/admin/reset-weekly", h.auth.RequireAdmin(h.resetWeekly)).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	})
	return c.Handler(r)
}

// requestLogger tags each request with an id and logs its completion.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := h.logger.With().Str("request_id", requestID).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
