package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger.Logger)
	logger.Info("Starting fintrack server")

	taxonomy, err := cli.LoadTaxonomy(cfg)
	if err != nil {
		logger.Error("Failed to load categories", "error", err, "file", cfg.CategoriesFile)
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	result, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	transactions := services.NewTransactionService(result.Store, taxonomy, result.TransactionPublisher())
	analytics := services.NewAnalyticsService(result.Store)
	transactions.OnChange(analytics.Invalidate)

	opts := apphttp.Options{
		Transactions:       transactions,
		Budgets:            services.NewBudgetService(result.Store, result.Store, taxonomy),
		Analytics:          analytics,
		Debts:              services.NewDebtService(result.Store),
		Taxonomy:           taxonomy,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CurrencySymbol:     cfg.CurrencySymbol,
	}
	if p, ok := result.Store.(apphttp.Pinger); ok {
		opts.Ready = p
	}
	srv := apphttp.NewServer(":"+cfg.Port, opts)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
