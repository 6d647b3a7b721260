package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wallet-ledger/wallet_ledger/internal/account"
	"github.com/wallet-ledger/wallet_ledger/internal/auth"
	"github.com/wallet-ledger/wallet_ledger/internal/config"
	"github.com/wallet-ledger/wallet_ledger/internal/ledger"
	"github.com/wallet-ledger/wallet_ledger/internal/middleware"
	"github.com/wallet-ledger/wallet_ledger/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil {
		return fmt.Errorf("database is required")
	}
	if d.Cache == nil {
		return fmt.Errorf("redis is required")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	store := ledger.NewPostgresStore(d.DB)
	recorder := ledger.NewRecorder(store)
	coordinator := ledger.NewCoordinator(store, recorder, d.Logger, d.Cfg.OperationTimeout)
	notifier := notification.NewLoggerNotifier(d.Logger)
	ledgerHandler := ledger.NewHandler(coordinator, notifier)

	accountRepo := account.NewPostgresRepository(d.DB)
	accountSvc := account.NewService(accountRepo)
	accountHandler := account.NewHandler(accountSvc)
	authHandler := auth.NewHandler(accountSvc, d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)

	api := app.Group("/api/v1")

	// Public routes
	api.Post("/accounts", accountHandler.Register)
	api.Post("/auth/login", middleware.LoginRateLimit(d.Cache, 5), authHandler.Login)

	// Protected routes; unsafe methods additionally pass the idempotency guard.
	protected := api.Group("", middleware.JWTAuth(d.Cfg.JWTSecret))
	protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	protected.Post("/wallets", ledgerHandler.Create)
	protected.Get("/wallets/:walletId", ledgerHandler.Get)
	protected.Put("/wallets/:walletId/deposit", ledgerHandler.Deposit)
	protected.Put("/wallets/:walletId/withdraw", ledgerHandler.Withdraw)
	protected.Post("/wallets/:walletId/transfer/:destinationId", ledgerHandler.Transfer)
	protected.Get("/wallets/:walletId/history", ledgerHandler.History)

	return nil
}
