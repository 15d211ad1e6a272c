package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/redmonkez12/meditrack-api/internal/auth"
	"github.com/redmonkez12/meditrack-api/internal/config"
	"github.com/redmonkez12/meditrack-api/internal/httputil"
	"github.com/redmonkez12/meditrack-api/internal/logging"
	"github.com/redmonkez12/meditrack-api/internal/profile"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *auth.Handler
	Profile       *profile.Handler
	Authenticator *auth.Authenticator
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS must run before anything that can reject a preflight
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator.RequireAuth)
			r.Get("/me", h.Auth.Me)
			r.Post("/logout", h.Auth.Logout)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.Authenticator.RequireAuth)
		r.Get("/me", h.Profile.Get)
		r.Patch("/me", h.Profile.Update)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
