package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/postgres"
	"github.com/api-sage/bank-ledger/src/internal/config"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	metricsprom "github.com/api-sage/bank-ledger/src/internal/metrics/prometheus"
	"github.com/api-sage/bank-ledger/src/internal/notification"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Error("server exited with error", err, nil)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(startupCtx, cfg.DatabaseDSN, postgres.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := postgres.RunMigrations(startupCtx, db, cfg.MigrationsDir); err != nil {
		return err
	}
	logger.Info("migrations completed", logger.Fields{"dir": cfg.MigrationsDir})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metricsprom.NewCollector(cfg.Metrics.Namespace)
	if err := collector.Register(registry); err != nil {
		return err
	}

	dispatcher := notification.NewDispatcher(newSender(cfg), notification.Config{
		QueueSize:   cfg.Notify.QueueSize,
		Workers:     cfg.Notify.Workers,
		EnqueueWait: cfg.Notify.EnqueueWait,
		SendTimeout: cfg.Notify.SendTimeout,
	}, collector)

	customerRepo := postgres.NewCustomerRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db, postgres.NewIDAllocator())

	authService := services.NewAuthService(customerRepo)
	transferService := services.NewTransferService(
		authService,
		customerRepo,
		accountRepo,
		transactionRepo,
		dispatcher,
		collector,
	)
	transactionService := services.NewTransactionService(accountRepo, transactionRepo)

	handler := router.New(
		controller.NewTransactionController(transferService, transactionService),
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		db.PingContext,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", logger.Fields{"addr": cfg.HTTPAddr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", logger.Fields{"timeout": cfg.ShutdownTimeout.String()})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serverErr := server.Shutdown(shutdownCtx)
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Error("notification dispatcher close failed", err, nil)
		}
		return serverErr
	})

	return g.Wait()
}

func newSender(cfg config.Config) notification.Sender {
	if !cfg.SMTP.Enabled() {
		logger.Warn("smtp not configured, transfer alerts will be logged only", nil)
		return notification.LogSender{}
	}
	return notification.NewEmailSender(notification.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
	})
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Error("close database failed", err, nil)
	}
}
