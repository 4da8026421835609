package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio_view/internal/app/provider"
	"portfolio_view/internal/app/service"
	"portfolio_view/internal/infrastructure/configloader"
	"portfolio_view/internal/infrastructure/pricing"
	"portfolio_view/internal/infrastructure/restapi"
	"portfolio_view/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

const defaultConfigPath = "config/config.yml"

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	var zapLogger *zap.Logger
	if cfg.Logging.Level == "debug" {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Route the slog globals used by the provider layer through zap.
	logger.SetHandler(zapslog.NewHandler(zapLogger.Core()))
	logger.Info("Portfolio view service starting", "configPath", cfgPath)

	appLogger := logger.NewSlogAdapter()

	pricingTimeout := time.Duration(cfg.Pricing.RequestTimeoutMillis) * time.Millisecond
	pricingClient := pricing.NewClient(
		cfg.Pricing.BaseURL,
		pricingTimeout,
		zapLogger,
		cfg.Pricing.MaxTokensPerBatchRequest,
	)
	logger.Info("Pricing client initialized", "baseURL", cfg.Pricing.BaseURL)

	tokenFilter := provider.NewTokenFilterLoader(cfg.Files.TokenFilter, appLogger.Info, appLogger.Warn)

	viewService := service.NewViewService(pricingClient, tokenFilter, cfg, zapLogger)
	logger.Info("ViewService initialized",
		"maxConcurrentRequests", cfg.Performance.MaxConcurrentRequests,
		"requestsPerSecond", cfg.Performance.RequestsPerSecond,
	)

	portfolioHandler := restapi.NewPortfolioHandler(viewService)
	router := restapi.SetupRouter(portfolioHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	logger.Info("Shutdown signal received, stopping HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown of HTTP server failed", "error", err)
	} else {
		logger.Info("HTTP server stopped")
	}

	logger.Info("Portfolio view service stopped")
}
