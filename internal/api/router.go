package api

import (
	"net/http"

	"github.com/dom/noteshare/internal/api/handlers"
	"github.com/dom/noteshare/internal/api/middleware"
	"github.com/dom/noteshare/internal/config"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/service"
	"github.com/dom/noteshare/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(m.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", m.Handler())

	requireAuth := middleware.RequireAuth(services.Auth)
	optionalAuth := middleware.OptionalAuth(services.Auth)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, services.Profile)
	noteHandler := handlers.NewNoteHandler(services.Note)
	profileHandler := handlers.NewProfileHandler(services.Profile, cfg.MaxAvatarBytes)
	userHandler := handlers.NewUserHandler(services.Profile, services.Note)
	feedHandler := handlers.NewFeedHandler(hub)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.With(optionalAuth).Get("/{id}", noteHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", noteHandler.Create)
				r.Put("/{id}", noteHandler.Update)
				r.Delete("/{id}", noteHandler.Delete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAuth).Get("/me/notes", noteHandler.ListMine)
			r.Get("/{id}", userHandler.GetProfile)
			r.Get("/{id}/notes", userHandler.ListNotes)
		})

		// Profile routes
		r.Route("/profile", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpdateProfile)
			r.Post("/avatar", profileHandler.UploadAvatar)
		})

		// Public notes feed
		r.Get("/feed", feedHandler.Handle)
	})

	return r
}
