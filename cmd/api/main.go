package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/loyaltyhub-backend/api/routes"
	adminsvc "github.com/angelmondragon/loyaltyhub-backend/internal/admin"
	"github.com/angelmondragon/loyaltyhub-backend/internal/auth"
	"github.com/angelmondragon/loyaltyhub-backend/internal/loyalty"
	paymentsvc "github.com/angelmondragon/loyaltyhub-backend/internal/payments"
	rewardsvc "github.com/angelmondragon/loyaltyhub-backend/internal/rewards"
	sweepsvc "github.com/angelmondragon/loyaltyhub-backend/internal/sweepstakes"
	"github.com/angelmondragon/loyaltyhub-backend/internal/transactions"
	"github.com/angelmondragon/loyaltyhub-backend/internal/users"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/auth/session"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/config"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/migrate"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/redis"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	transactionsRepo := transactions.NewRepository(dbClient.DB())
	rewardsRepo := rewardsvc.NewRepository(dbClient.DB())
	sweepstakesRepo := sweepsvc.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	loyaltyService, err := loyalty.NewService(loyalty.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Users:        usersRepo,
		Transactions: transactionsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	rewardsService, err := rewardsvc.NewService(rewardsvc.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Rewards:      rewardsRepo,
		Users:        usersRepo,
		Transactions: transactionsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	sweepstakesService, err := sweepsvc.NewService(sweepsvc.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Sweepstakes:  sweepstakesRepo,
		Users:        usersRepo,
		Transactions: transactionsRepo,
		MaxEntries:   cfg.Loyalty.MaxEntriesPerRequest,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweepstakes service", err)
		os.Exit(1)
	}

	var cardProcessor paymentsvc.Processor
	if cfg.Square.AccessToken != "" {
		squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create square client", err)
			os.Exit(1)
		}
		cardProcessor, err = paymentsvc.NewCardProcessor(squareClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create card processor", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "square access token not set; card payments disabled")
	}

	paymentsService, err := paymentsvc.NewService(paymentsvc.ServiceParams{
		Logger:       logg,
		Transactions: transactionsRepo,
		Loyalty:      loyaltyService,
		Processors:   paymentsvc.NewRegistry(cardProcessor),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	adminService, err := adminsvc.NewService(adminsvc.ServiceParams{
		Logger:       logg,
		Users:        usersRepo,
		Transactions: transactionsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:        authService,
			Loyalty:     loyaltyService,
			Rewards:     rewardsService,
			Sweepstakes: sweepstakesService,
			Payments:    paymentsService,
			Admin:       adminService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
