package router

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"cuckoo-backend/internal/handlers"
	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/websocket"
)

type Options struct {
	QuizSessionTTL time.Duration
	SecureCookies  bool
	// Health reports backend reachability for /health; nil means always ok.
	Health func(ctx context.Context) error
}

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	pageHandler *handlers.PageHandler,
	apiHandler *handlers.APIHandler,
	quizHandler *handlers.QuizHandler,
	wsHub *websocket.Hub,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				log.Printf("health check failed: %v", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── JSON API ────
	r.Route("/api", func(r chi.Router) {
		r.With(authLimiter.Middleware).Post("/auth/token", authHandler.Token)

		r.Get("/questions/", apiHandler.ListQuestions)
		r.Get("/questions/{id}/", apiHandler.GetQuestion)
		r.Get("/get-random-question/", apiHandler.RandomQuestion)

		// Mutations need an admin token
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireAdmin)
			r.Post("/questions/", apiHandler.CreateQuestion)
			r.Patch("/questions/{id}/", apiHandler.UpdateQuestion)
			r.Delete("/questions/{id}/", apiHandler.DeleteQuestion)
		})
	})

	// ──── WebSocket ────
	r.Get("/ws/questions/{id}", wsHub.HandleWebSocket)

	// ──── HTML site ────
	r.Group(func(r chi.Router) {
		r.Use(jwtAuth.Optional)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/main", http.StatusFound)
		})
		r.Get("/main", pageHandler.Main)
		r.Get("/random-question", pageHandler.RandomQuestion)

		r.Get("/questions", pageHandler.ListQuestions)
		r.Get("/questions/{id}", pageHandler.ShowQuestion)
		r.Post("/questions/{id}", pageHandler.AddComment)
		r.Get("/questions/{id}/edit", pageHandler.EditQuestionForm)
		r.Post("/questions/{id}/edit", pageHandler.UpdateQuestion)
		r.Get("/add", pageHandler.NewQuestionForm)
		r.Post("/add", pageHandler.CreateQuestion)

		r.Get("/register", authHandler.RegisterForm)
		r.Get("/login", authHandler.LoginForm)
		r.Get("/logout", authHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/quiz", func(r chi.Router) {
			r.Use(middleware.QuizSession(opts.QuizSessionTTL, opts.SecureCookies))
			r.Get("/start", quizHandler.Start)
			r.Post("/begin", quizHandler.Begin)
			r.Get("/step/{n}", quizHandler.Step)
			r.Post("/reveal/{n}", quizHandler.Reveal)
			r.Post("/mark/{n}", quizHandler.Mark)
			r.Get("/finish", quizHandler.Finish)
			r.Post("/reset", quizHandler.Reset)
		})
	})

	return r
}
