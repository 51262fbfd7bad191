package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"rag-chat/internal/handlers"
	"rag-chat/internal/middleware"
	"rag-chat/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	chatLimiter *middleware.RateLimiter,
	pageHandler *handlers.PageHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.ForwardedIdentity)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(sessionAuth.Middleware)

		r.Get("/", pageHandler.Index)

		r.Route("/api/v1", func(r chi.Router) {
			// ──── Session Routes ────
			r.Route("/session", func(r chi.Router) {
				r.Get("/", chatHandler.GetSession)
				r.Post("/reset", chatHandler.Reset)
				r.Put("/view", chatHandler.SetView)
			})

			// ──── Chat Routes ────
			r.With(chatLimiter.Middleware).Post("/chat", chatHandler.SendMessage)

			// ──── Suggested Question Routes ────
			r.Route("/questions", func(r chi.Router) {
				r.Get("/", chatHandler.ListQuestions)
				r.Post("/select", chatHandler.SelectQuestion)
				r.Delete("/select", chatHandler.ClearQuestion)
				r.With(chatLimiter.Middleware).Post("/use", chatHandler.UseQuestion)
			})

			// ──── WebSocket ────
			r.Get("/ws", wsHub.HandleWebSocket)
		})
	})

	return r
}
