package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantopy-dev/quantopy/config"
	c "github.com/quantopy-dev/quantopy/core"
	"github.com/quantopy-dev/quantopy/logger"
	r "github.com/quantopy-dev/quantopy/repos"
)

func main() {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	serviceLogger := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(serviceLogger)

	postgresConnection, err := r.GetPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		serviceLogger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer postgresConnection.Close()

	sc := c.ServiceContext{
		Context:            ctx,
		PostgresConnection: postgresConnection,
		Logger:             serviceLogger,
		Workers:            cfg.Workers,
		BatchSize:          cfg.BatchSize,
	}

	// get http server, makes all of the endpoints and routes
	s := c.GetHttpServer(sc, cfg.Addr)

	// start http server in goroutine
	go func() {
		serviceLogger.Info().Str("addr", s.Addr).Msg("starting return analytics server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.Fatal().Err(err).Msg("server error")
		}
	}()

	// wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	serviceLogger.Info().Msg("received shutdown signal, shutting down gracefully")

	// give the server 10 seconds to finish in flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error().Err(err).Msg("server shutdown error")
	}

	serviceLogger.Info().Msg("server stopped")
}
