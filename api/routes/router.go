package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/autoparts-backend/api/controllers"
	"github.com/angelmondragon/autoparts-backend/api/middleware"
	"github.com/angelmondragon/autoparts-backend/internal/auth"
	"github.com/angelmondragon/autoparts-backend/internal/cart"
	"github.com/angelmondragon/autoparts-backend/internal/parts"
	"github.com/angelmondragon/autoparts-backend/internal/registration"
	"github.com/angelmondragon/autoparts-backend/internal/sellers"
	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/autoparts-backend/pkg/redis"
)

// redisStore is the slice of the Redis client the HTTP surface needs.
type redisStore interface {
	pkgredis.RateLimiter
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	dbP db.Pinger,
	redisClient redisStore,
	tokens *pkgAuth.TokenService,
	authService auth.Service,
	registrationService registration.Service,
	cartService cart.Service,
	sellerService sellers.Service,
	partsService parts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	cookies := controllers.NewSessionCookies(tokens, cfg.App.IsProd())
	policies := middleware.PoliciesFromConfig(cfg.AuthRateLimit)

	var checks []controllers.ReadinessCheck
	if dbP != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "postgres", Pinger: dbP})
	}
	if redisClient != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(policies.Login, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, cookies, logg))
		r.With(middleware.AuthRateLimit(policies.Register, redisClient, logg)).Post("/register", controllers.AuthRegister(registrationService, logg))
		r.With(middleware.AuthRateLimit(policies.Resend, redisClient, logg)).Post("/resend", controllers.AuthResend(registrationService, logg))
		r.With(middleware.AuthRateLimit(policies.Verify, redisClient, logg)).Post("/verify", controllers.AuthVerify(registrationService, authService, cookies, logg))
		r.Get("/session", controllers.AuthSession(authService, cookies, logg))
		r.Delete("/session", controllers.AuthLogout(cookies))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.Auth(tokens, logg))
		r.Get("/", controllers.CartGet(cartService, logg))
		r.With(middleware.Idempotency(redisClient, cfg.App.IdempotencyTTL, logg)).Post("/items", controllers.CartAddItem(cartService, logg))
		r.Put("/items/{itemId}", controllers.CartSetQuantity(cartService, logg))
		r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
	})

	r.Route("/api/seller", func(r chi.Router) {
		r.Use(middleware.Auth(tokens, logg))
		r.Post("/register", controllers.SellerRegister(sellerService, authService, cookies, logg))
		r.Get("/profile", controllers.SellerProfile(sellerService, logg))
		r.Get("/{id}/parts", controllers.SellerParts(sellerService, logg))
	})

	r.Route("/api/parts", func(r chi.Router) {
		r.With(
			middleware.Auth(tokens, logg),
			middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin),
		).Post("/", controllers.PartsCreate(partsService, logg))
		r.Get("/", controllers.PartsList(partsService, logg))
		r.With(middleware.OptionalAuth(tokens, logg)).Get("/{partId}", controllers.PartsGet(partsService, logg))
	})

	return r
}
