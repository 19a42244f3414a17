package handler

import (
	"net/http"
	"time"

	"poll-be/internal/middleware"
	"poll-be/internal/service"
	apperrors "poll-be/pkg/errors"
	"poll-be/pkg/logger"
	"poll-be/pkg/response"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds what the router needs besides the services
type RouterConfig struct {
	AllowedOrigins []string
	Version        string
	RequestTimeout time.Duration
}

// NewRouter configures and returns the HTTP router
func NewRouter(cfg RouterConfig, services *service.Services, health HealthChecker, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	corsConfig := middleware.NewCORSConfig(cfg.AllowedOrigins)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(timeout))

	healthHandler := NewHealthHandler(health, cfg.Version, log)
	pollHandler := NewPollHandler(services.Poll, log)
	userHandler := NewUserHandler(services.Poll, log)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Check)

		r.Route("/polls", func(r chi.Router) {
			// Results are public; a token, when sent, must still be valid
			r.With(middleware.OptionalAuth(services.Auth, log)).Get("/{id}/results", pollHandler.Results)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth, log))

				r.Post("/", pollHandler.Create)
				r.Get("/", pollHandler.List)
				r.Get("/voted", pollHandler.ListVoted)
				r.Get("/bookmarked", pollHandler.ListBookmarked)
				r.Get("/{id}", pollHandler.Get)
				r.Delete("/{id}", pollHandler.Delete)
				r.Post("/{id}/vote", pollHandler.Vote)
				r.Post("/{id}/close", pollHandler.Close)
				r.Post("/{id}/bookmark", pollHandler.Bookmark)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth, log))

			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateMe)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, apperrors.NewNotFoundError("Endpoint not found"),
			middleware.RequestIDFromContext(req.Context()), nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, apperrors.NewMethodNotAllowedError("Method not allowed"),
			middleware.RequestIDFromContext(req.Context()), nil)
	})

	log.Info("Router configured successfully")
	return r
}
