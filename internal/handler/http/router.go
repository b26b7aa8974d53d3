package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukmik/membership-service/pkg/health"
	"github.com/ukmik/membership-service/pkg/middleware"

	"github.com/ukmik/membership-service/internal/auth"
	"github.com/ukmik/membership-service/internal/service"
)

// NewRouter creates a chi router with all membership service routes registered.
func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	candidateService *service.CandidateService,
	tokens *auth.TokenManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("membership"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator bridging the bearer middleware to the token manager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
		}, nil
	}

	authHandler := NewAuthHandler(authService, tokens, logger)
	userHandler := NewUserHandler(userService, logger)
	candidateHandler := NewCandidateHandler(candidateService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokenValidator))

				r.Post("/logout", authHandler.Logout)
				r.Patch("/change-password", authHandler.ChangePassword)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/export", userHandler.Export)
			r.Get("/{id}", userHandler.Get)
			r.Patch("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/", candidateHandler.List)
			r.Post("/", candidateHandler.Create)
			r.Get("/export", candidateHandler.Export)
			r.Get("/{id}", candidateHandler.Get)
			r.Patch("/{id}", candidateHandler.Update)
			r.Delete("/{id}", candidateHandler.Delete)
			r.Patch("/{id}/decision", candidateHandler.Decide)
		})
	})

	return r
}
