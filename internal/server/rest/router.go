// Package rest is the HTTP surface of the server: a chi router exposing the
// authentication endpoints under /api/v1.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server/access"
	"github.com/dmitrijs2005/quizdeck/internal/server/metrics"
)

// APIPrefix is the root path of every API route.
const APIPrefix = "/api/v1"

// RouterOptions are the collaborators of the router. Users and both guards
// are required; Metrics and CORSOptions may be nil.
type RouterOptions struct {
	Users       UserService
	UserGuard   access.Guard
	AdminGuard  access.Guard
	Logger      logging.Logger
	Metrics     *metrics.Metrics
	CORSOptions *cors.Options
}

// DefaultCORSOptions returns the CORS policy for the given origins.
func DefaultCORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"WWW-Authenticate", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// NewRouter assembles the middleware stack and mounts the handlers.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	h := &handlers{users: opts.Users, logger: logger, metrics: opts.Metrics}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger, opts.Metrics))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions([]string{"http://localhost:3000"})
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})

	requireUser := access.Require(opts.UserGuard, RespondGuardError, logger, opts.Metrics)
	requireAdmin := access.Require(opts.AdminGuard, RespondGuardError, logger, opts.Metrics)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/healthcheck", h.healthcheck)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/token", h.login)
			r.With(requireUser).Post("/logout", h.logout)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/", h.me)
			r.Put("/password", h.changePassword)
		})

		r.Route("/admin/users/{id}", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Put("/role", h.setRole)
			r.Put("/active", h.setActive)
		})
	})

	return r
}

// NewMetricsRouter serves GET /metrics. It is meant for its own listener,
// away from the public API.
func NewMetricsRouter(m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}
