// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-ledger/config"
	"go-ledger/db"
	"go-ledger/events"
	"go-ledger/handler"
	"go-ledger/logger"
	"go-ledger/repository"
	"go-ledger/router"
	"go-ledger/service"

	"github.com/shopspring/decimal"
)

// App is the fully wired application on top of a database handle.
type App struct {
	DB           *sql.DB
	Router       http.Handler
	Auth         *service.AuthService
	Accounts     *service.AccountService
	Transactions *service.TransactionService
}

// New wires repositories, services, handlers and the router. cache and
// publisher are optional.
func New(cfg config.Config, database *sql.DB, cache service.ICacheClient, publisher service.ILedgerPublisher) (*App, error) {
	openingBalance, err := decimal.NewFromString(cfg.Ledger.OpeningBalance)
	if err != nil || openingBalance.IsNegative() {
		return nil, fmt.Errorf("invalid ledger.opening_balance %q", cfg.Ledger.OpeningBalance)
	}
	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("jwt.secret_key must be set")
	}

	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)
	txManager := repository.NewTxManager(database)

	authService := service.NewAuthService(accountRepo, cfg.JWT.SecretKey, cfg.JWT.Expiry, openingBalance)
	accountService := service.NewAccountService(accountRepo, cache, cfg.Redis.TTL)
	transactionService := service.NewTransactionService(txManager, accountRepo, transactionRepo, transactionRepo, cache, publisher)

	r := router.NewRouter(
		handler.NewUserHandler(authService),
		handler.NewAccountHandler(accountService),
		handler.NewTransactionHandler(transactionService),
		authService,
	)

	return &App{
		DB:           database,
		Router:       r,
		Auth:         authService,
		Accounts:     accountService,
		Transactions: transactionService,
	}, nil
}

func Run() {
	logger.Init()
	config.LoadConfig(".")
	cfg := config.AppConfig
	logger.SetLevel(cfg.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(cfg.Database.MigrationsPath, db.MigrationURL(cfg)); err != nil {
			logger.Log.Fatalf("Error running migrations: %v", err)
		}
	}

	var cache service.ICacheClient
	if cfg.Redis.Enabled {
		rdb, err := db.ConnectRedis(context.Background(), cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, continuing without account cache")
		} else {
			defer rdb.Close()
			cache = rdb
		}
	}

	var publisher service.ILedgerPublisher
	if cfg.RabbitMQ.Enabled {
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			logger.Log.WithError(err).Warn("RabbitMQ unavailable, continuing without ledger events")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	application, err := New(cfg, database, cache, publisher)
	if err != nil {
		logger.Log.Fatalf("Error wiring application: %v", err)
	}

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
