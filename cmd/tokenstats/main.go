package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokenstats/internal/infrastructure/configloader"
	networkdefinition "tokenstats/internal/infrastructure/network/definition"
	"tokenstats/internal/infrastructure/restapi"
	"tokenstats/internal/infrastructure/wiring"
	"tokenstats/internal/pkg/logger"
	"tokenstats/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	slogzap "github.com/samber/slog-zap/v2"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", envOr("CONFIG_PATH", "config/config.yml"), "path to the YAML config file")
	envFile := pflag.String("env-file", ".env", "optional .env file loaded before the config")
	pflag.Parse()

	if err := configloader.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		os.Exit(1)
	}

	cfg, err := configloader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	slogLevel, ok := logger.ParseLevel(cfg.Logging.Level)
	slogHandler := slogzap.Option{Level: slogLevel, Logger: zapLogger}.NewZapHandler()
	logger.SetDefault(slog.New(slogHandler))
	if !ok {
		logger.Warn("Invalid log level in config, defaulting to INFO", "input", cfg.Logging.Level)
	}

	logger.Info("Token stats service starting", "config", *configPath)
	appLogger := logger.NewSlogAdapter()

	metrics.MustRegisterMetrics()

	netDefProvider := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg.Networks)
	built := wiring.BuildNetworkStats(cfg, netDefProvider, zapLogger)

	backends := make(map[string]restapi.Backend, len(built))
	for id, ns := range built {
		backends[id] = restapi.Backend{Network: ns.Network, Stats: ns.Stats, Cache: ns.Cache}
	}
	defaultNetwork := netDefProvider.Default().Identifier
	statsHandler := restapi.NewStatsHandler(backends, defaultNetwork, appLogger)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.SetupRouter(statsHandler, restapi.RouterOptions{
		Logger:         zapLogger.Named("http"),
		SwaggerEnabled: cfg.Swagger.Enabled,
		SwaggerPath:    cfg.Swagger.Path,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr, "defaultNetwork", defaultNetwork, "networks", len(backends))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received, stopping HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", "error", err)
	} else {
		logger.Info("HTTP server stopped.")
	}
	logger.Info("Token stats service stopped.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

