package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studynotes-backend/internal/handlers"
	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/metrics"
	"studynotes-backend/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth  *handlers.AuthHandler
	User  *handlers.UserHandler
	Note  *handlers.NoteHandler
	LLM   *handlers.LLMHandler
	Quiz  *handlers.QuizHandler
	WS    http.HandlerFunc
	Ready func(r *http.Request) error
}

func New(
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	h Handlers,
	frontendURL string,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if h.Ready != nil {
			if err := h.Ready(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			r.Post("/password-reset/request", h.Auth.RequestPasswordReset)
			r.Post("/password-reset", h.Auth.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", h.Auth.Logout)
			})
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", h.User.GetMe)
			r.Put("/me", h.User.UpdateMe)
			r.Delete("/me", h.User.DeleteMe)
			r.Put("/password", h.User.ChangePassword)
			r.Get("/flashcards", h.User.ListFlashcards)
		})

		// ──── Note Routes ────
		r.Route("/notes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", h.Note.Create)
			r.Get("/", h.Note.List)
			r.Post("/import/file", h.Note.ImportFile)
			r.Post("/import/youtube", h.Note.ImportYouTube)
			r.Get("/{noteId}", h.Note.Get)
			r.Put("/{noteId}", h.Note.Update)
			r.Delete("/{noteId}", h.Note.Delete)
		})

		// ──── LLM Routes ────
		r.Route("/llm", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate-summary/{noteId}", h.LLM.GenerateSummary)
			r.Post("/generate-flashcards/{noteId}", h.LLM.GenerateFlashcards)
			r.Post("/check-answer", h.LLM.CheckAnswer)
		})

		// ──── Quiz Routes ────
		r.Route("/quiz", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start/{noteId}", h.Quiz.Start)
			r.Post("/answer/{cardId}", h.Quiz.Answer)
			r.Get("/next/{noteId}", h.Quiz.Next)
			r.Get("/progress/{noteId}", h.Quiz.Progress)
			r.Get("/history/{noteId}", h.Quiz.History)
		})

		// ──── WebSocket ────
		if h.WS != nil {
			r.Get("/ws", h.WS)
		}
	})

	return r
}

