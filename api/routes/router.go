package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/loyaltyhub-backend/api/controllers"
	"github.com/angelmondragon/loyaltyhub-backend/api/middleware"
	adminsvc "github.com/angelmondragon/loyaltyhub-backend/internal/admin"
	"github.com/angelmondragon/loyaltyhub-backend/internal/auth"
	"github.com/angelmondragon/loyaltyhub-backend/internal/loyalty"
	paymentsvc "github.com/angelmondragon/loyaltyhub-backend/internal/payments"
	rewardsvc "github.com/angelmondragon/loyaltyhub-backend/internal/rewards"
	sweepsvc "github.com/angelmondragon/loyaltyhub-backend/internal/sweepstakes"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/auth/session"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/config"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/redis"
)

// Services bundles the wired domain services the router exposes.
type Services struct {
	Auth        auth.Service
	Loyalty     loyalty.Service
	Rewards     rewardsvc.Service
	Sweepstakes sweepsvc.Service
	Payments    paymentsvc.Service
	Admin       adminsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(services.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(services.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(services.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(services.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Use(middleware.RateLimit(redisClient, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/summary", controllers.LoyaltySummary(services.Loyalty, logg))
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", controllers.RewardsCatalog(services.Rewards, logg))
			r.Get("/{rewardId}", controllers.RewardsGet(services.Rewards, logg))
			r.Post("/{rewardId}/redeem", controllers.RewardsRedeem(services.Rewards, logg))
		})

		r.Route("/sweepstakes", func(r chi.Router) {
			r.Get("/", controllers.SweepstakesList(services.Sweepstakes, logg))
			r.Get("/{sweepstakesId}", controllers.SweepstakesGet(services.Sweepstakes, logg))
			r.Get("/{sweepstakesId}/my-entry", controllers.SweepstakesMyEntry(services.Sweepstakes, logg))
			r.Post("/{sweepstakesId}/enter", controllers.SweepstakesEnter(services.Sweepstakes, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/purchase", controllers.PaymentsPurchase(services.Payments, logg))
			r.Get("/history", controllers.PaymentsHistory(services.Payments, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireRole("admin", logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Use(middleware.RateLimit(redisClient, logg))
		}

		r.Get("/ping", controllers.AdminPing())
		r.Get("/dashboard", controllers.AdminDashboard(services.Admin, logg))
		r.Get("/analytics", controllers.AdminAnalytics(services.Admin, logg))

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", controllers.AdminRewardList(services.Rewards, logg))
			r.Post("/", controllers.AdminRewardCreate(services.Rewards, logg))
			r.Patch("/{rewardId}", controllers.AdminRewardUpdate(services.Rewards, logg))
		})

		r.Route("/sweepstakes", func(r chi.Router) {
			r.Post("/", controllers.AdminSweepstakesCreate(services.Sweepstakes, logg))
			r.Patch("/{sweepstakesId}", controllers.AdminSweepstakesUpdate(services.Sweepstakes, logg))
			r.Post("/{sweepstakesId}/draw", controllers.AdminSweepstakesDraw(services.Sweepstakes, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(services.Admin, logg))
			r.Patch("/{userId}", controllers.AdminUpdateUser(services.Admin, logg))
			r.Post("/{userId}/points/adjust", controllers.AdminAdjustPoints(services.Loyalty, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/{transactionId}/complete", controllers.AdminCompleteTransaction(services.Payments, logg))
			r.Post("/{transactionId}/fail", controllers.AdminFailTransaction(services.Payments, logg))
		})
	})

	return r
}
