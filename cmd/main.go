package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/api/routes"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/config"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/di"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/graceful"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	tracingConfig := tracing.Config{
		Enabled:      cfg.Environment != "test",
		CollectorURL: "localhost:4317",
		Environment:  cfg.Environment,
		SampleRate:   1.0,
	}
	tracingShutdown, err := tracing.InitTracer(context.Background(), tracingConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer tracingShutdown(context.Background())

	container, err := di.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application container", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Setup(router, container.WalletHandler, container.BalanceHandler, container.TransferHandler, container.Metrics.Registry())

	container.Scheduler.Start(context.Background())

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	shutdown := graceful.NewShutdownManager(server, container.DB, logger)
	shutdown.Register(container.Scheduler)
	shutdown.WaitForShutdown()
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
