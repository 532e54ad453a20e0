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

	"saveai-api/blockchain"
	"saveai-api/config"
	"saveai-api/db"
	"saveai-api/handler"
	"saveai-api/logger"
	"saveai-api/metrics"
	"saveai-api/repository"
	"saveai-api/router"
	"saveai-api/service"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// App holds the wired dependencies of a running API.
type App struct {
	DB      *sql.DB
	Redis   *redis.Client
	Node    blockchain.Node
	Metrics *metrics.Metrics
	Router  http.Handler
}

// Build wires repositories, services, handlers and the router from
// config.AppConfig. A nil cache disables caching.
func Build(database *sql.DB, cache *redis.Client, node blockchain.Node) *App {
	cfg := config.AppConfig
	m := metrics.New()

	transactionRepo := repository.NewTransactionRepository(database)

	var cacheClient service.ICacheClient
	if cache != nil {
		cacheClient = cache
	}

	securityService := service.NewSecurityService(transactionRepo, service.SecurityConfigFromApp())
	attestationService := service.NewAttestationService(node, cfg.Blockchain.Network, cfg.Blockchain.ContractAddress)
	transactionService := service.NewTransactionService(
		transactionRepo,
		securityService,
		attestationService,
		cacheClient,
		m,
		cfg.Transaction.DefaultCurrency,
		cfg.Redis.TTL,
	)
	taxService := service.NewTaxService(transactionRepo, transactionService, service.TaxConfigFromApp())
	analyticsService := service.NewAnalyticsService(transactionRepo, decimal.NewFromFloat(cfg.Tax.VATRate))

	var checks []handler.HealthCheck
	if database != nil {
		checks = append(checks, handler.HealthCheck{Name: "database", Check: database.PingContext})
	}
	if cache != nil {
		checks = append(checks, handler.HealthCheck{
			Name:     "cache",
			Check:    func(ctx context.Context) error { return cache.Ping(ctx).Err() },
			Optional: true,
		})
	}

	handlers := router.Handlers{
		Health:       handler.NewHealthHandler(checks...),
		Transactions: handler.NewTransactionHandler(transactionService),
		Blockchain:   handler.NewBlockchainHandler(transactionService, attestationService),
		Security:     handler.NewSecurityHandler(securityService, transactionService),
		Tax:          handler.NewTaxHandler(taxService),
		Analytics:    handler.NewAnalyticsHandler(analyticsService),
	}

	return &App{
		DB:      database,
		Redis:   cache,
		Node:    node,
		Metrics: m,
		Router:  router.NewRouter(handlers, securityService, m),
	}
}

// Run connects to Postgres, Redis and the blockchain node, then serves HTTP
// until SIGINT or SIGTERM. Redis is optional; without it requests bypass the cache.
func Run(ctx context.Context, migrate bool) error {
	if err := config.AppConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if migrate {
		if err := db.Migrate(db.DefaultMigrationsPath, db.URL(), db.Up); err != nil {
			return err
		}
	}

	database, err := db.Connect()
	if err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}
	defer database.Close()

	cache, err := db.ConnectRedis(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable; continuing without cache")
		cache = nil
	} else {
		defer cache.Close()
	}

	node, err := blockchain.NewNode(ctx, config.AppConfig.Blockchain.NodeURL)
	if err != nil {
		return err
	}
	defer node.Close()

	a := Build(database, cache, node)

	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
		logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	case <-ctx.Done():
		logger.Log.Warn("Context cancelled. Starting graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exited properly")
	return nil
}
