package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"promptpix/internal/http/handlers"
	httpapi "promptpix/internal/http/httpapi"
	"promptpix/internal/imagegen"
	"promptpix/internal/infra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	service, err := imagegen.NewServiceFromConfig(cfg, nil, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image service")
	}

	app := handlers.NewApp(cfg, logger, service)
	router := httpapi.NewRouter(app, httpapi.Options{
		PublicDir:   cfg.PublicDir,
		OutputDir:   cfg.OutputDir,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	// Cancelled on SIGINT/SIGTERM so in-flight provider polls stop with the server.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := infra.NewHTTPServer(cfg, router, ctx)

	go func() {
		logger.Info().
			Str("provider", service.Provider()).
			Bool("persist_outputs", cfg.PersistImages).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
