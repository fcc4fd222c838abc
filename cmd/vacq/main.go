package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/vacq/internal/config"
	"github.com/deppfellow/vacq/internal/database"
	"github.com/deppfellow/vacq/internal/handler"
	"github.com/deppfellow/vacq/internal/logger"
	"github.com/deppfellow/vacq/internal/repository"
	"github.com/deppfellow/vacq/internal/router"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/deppfellow/vacq/internal/service"
)

// DefaultShutdownTimeout bounds the graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

// run wires the application and blocks until a signal arrives or the
// listener fails. It returns the process exit code.
func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, &log, cfg); err != nil {
		log.Error().Err(err).Msg("failed to migrate database")
		return 1
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return 1
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewServices(srv, service.StoresFrom(repos))
	if err != nil {
		log.Error().Err(err).Msg("could not create services")
		return 1
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	exitCode := 0

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		exitCode = 1
	}

	log.Info().Int("exit_code", exitCode).Msg("server exited")
	return exitCode
}
