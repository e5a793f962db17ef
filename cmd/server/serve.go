package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mentormatch/mentor-match-go/internal/config"
	"github.com/mentormatch/mentor-match-go/internal/handler"
	"github.com/mentormatch/mentor-match-go/internal/jobs"
	"github.com/mentormatch/mentor-match-go/internal/sse"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	broker := sse.NewBroker(a.redis)
	defer broker.Close()

	repos := a.buildRepositories()
	svc, err := a.buildServices(repos, broker)
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           svc.auth,
		Profiles:       svc.profiles,
		Metrics:        svc.metrics,
		Sessions:       svc.sessions,
		Reviews:        svc.reviews,
		Educations:     svc.educations,
		Experiences:    svc.experiences,
		Certifications: svc.certifications,
		Calendar:       svc.calendar,
		Broker:         broker,
		Limiter:        svc.limiter,
		IsProduction:   a.cfg.IsProduction(),
	})

	maintenance := jobs.NewMaintenanceJob(svc.sessions, svc.auth, repos.states, config.MaintenanceJobInterval)
	maintenance.Start()
	defer maintenance.Stop()

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
	return nil
}
