package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/cache"
	"github.com/ruralpay/myaccount/internal/config"
	"github.com/ruralpay/myaccount/internal/database"
	"github.com/ruralpay/myaccount/internal/events"
	"github.com/ruralpay/myaccount/internal/handlers"
	"github.com/ruralpay/myaccount/internal/lock"
	applog "github.com/ruralpay/myaccount/internal/logger"
	mW "github.com/ruralpay/myaccount/internal/middleware"
	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository/postgres"
	"github.com/ruralpay/myaccount/internal/services"
)

// @title MyAccount API
// @version 1.0
// @description Account balance use, cancellation and transaction lookup
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	dbConfig := database.GetConfig()
	db, err := database.InitDB(dbConfig, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.RunMigrations(db, dbConfig.Name, logger); err != nil {
			return err
		}
	}

	redisClient, err := database.InitRedis(logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	auditLogger := audit.NewAuditLogger(logger)

	users := postgres.NewUserRepository(db)
	accounts := postgres.NewAccountRepository(db)
	transactions := postgres.NewTransactionRepository(db)
	transactor := postgres.NewTransactor(db)

	var publisher services.EventPublisher
	if cfg.EventsEnabled {
		publisher = events.NewPublisher(redisClient, cfg.EventsMaxLen)
	}
	viewCache := cache.NewViewCache[models.TransactionView](redisClient, cfg.TransactionTTL, logger)

	guard := services.NewAccountLockGuard(
		lock.NewRedisProvider(redisClient, cfg.Lock.RetryDelay),
		services.LockConfig{
			KeyPrefix:   cfg.Lock.KeyPrefix,
			WaitTimeout: cfg.Lock.WaitTimeout,
			HoldTimeout: cfg.Lock.HoldTimeout,
		},
		auditLogger,
		logger,
	)

	ledger := services.NewLedgerService(transactions, accounts, viewCache, publisher, auditLogger, logger)
	engine := services.NewBalanceEngine(users, accounts, transactor, ledger, cfg.Transaction.CancelWindow)
	transactionService := services.NewTransactionService(guard, engine, ledger, logger)
	accountService := services.NewAccountService(users, accounts, transactor, guard, publisher, auditLogger, logger,
		services.AccountConfig{
			MaxPerUser:  cfg.Account.MaxPerUser,
			FirstNumber: cfg.Account.FirstNumber,
		})

	transactionHandler := handlers.NewTransactionHandler(transactionService, handlers.AmountRange{
		Min: cfg.Transaction.MinAmount,
		Max: cfg.Transaction.MaxAmount,
	}, logger)
	accountHandler := handlers.NewAccountHandler(accountService, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mW.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status, code = "database unavailable", http.StatusServiceUnavailable
		} else if err := redisClient.Ping(r.Context()).Err(); err != nil {
			status, code = "redis unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	// Serve OpenAPI document
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yaml")
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware(cfg.JWTSecret))

		transactionHandler.Routes(r)
		accountHandler.Routes(r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
