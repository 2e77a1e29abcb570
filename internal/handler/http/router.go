package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilKhr/simple-phone-and-email-auth/pkg/health"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/middleware"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/auth"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/sso"
)

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	ssoService *sso.Service,
	users repository.UserRepository,
	tokens *auth.TokenManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("auth"))
	r.Use(middleware.Tracing("auth"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	// Token validator that bridges to our internal TokenManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: strconv.FormatInt(claims.UserID, 10),
			Email:  claims.Email,
		}, nil
	}

	// Auth API endpoints
	ssoHandler := NewSsoHandler(ssoService, users, logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)

		r.Post("/sign-in", ssoHandler.SignIn)
		r.Post("/sign-in/verify", ssoHandler.SignInVerify)
		r.Post("/sign-up", ssoHandler.SignUp)
		r.Post("/sign-up/verify", ssoHandler.SignUpVerify)
		r.Post("/logout", ssoHandler.Logout)

		// Endpoints that need an access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", ssoHandler.Me)
		})
	})

	return r
}
