package api

import (
	"net/http"
	"time"

	"snowbasin-backend/internal/config"
	"snowbasin-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler   *handlers.AuthHandler
	ChatHandler   *handlers.ChatHandlers
	StreamHandler *handlers.StreamHandlers
	Config        *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.vercel.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// Public shared-transcript endpoint.
	r.Get("/share/{shareID}", deps.ChatHandler.HandleGetSharedChat)

	// The streaming endpoint resolves identity itself: guest requests pass
	// without a token, non-guest requests without one get 401 from the
	// handler. No request timeout here, stream lifetime is bounded by the
	// model API's own completion.
	r.Group(func(r chi.Router) {
		r.Use(OptionalJwtAuthMiddleware(deps.Config.JWTSecret))
		r.Post("/chat-stream", deps.StreamHandler.HandleChatStream)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", deps.ChatHandler.HandleListChats)
			r.Get("/{chatID}", deps.ChatHandler.HandleGetChat)
			r.Patch("/{chatID}", deps.ChatHandler.HandleUpdateChat)
			r.Delete("/{chatID}", deps.ChatHandler.HandleDeleteChat)
		})
	})

	return r
}
