package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/garage-ops/internal/auth"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/handlers"
	"github.com/ukydev/garage-ops/internal/metrics"
	"github.com/ukydev/garage-ops/internal/middleware"
	"github.com/ukydev/garage-ops/internal/notify"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic alert sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.withStore(ctx, func(store db.GarageStore, users db.UserCollection) error {
				return rt.serve(ctx, store, users)
			})
		},
	}
}

func (rt *runtime) serve(ctx context.Context, store db.GarageStore, users db.UserCollection) error {
	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	authService := auth.NewService(rt.cfg.JWTSecret, rt.cfg.JWTExpiry)
	router := handlers.NewRouter(
		handlers.NewGarageHandler(store, rt.policy, rec),
		handlers.NewAuthHandler(authService, users),
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimitMiddleware(rt.cfg.TrustProxy),
		rec,
	)

	publisher, err := newPublisher(rt.cfg)
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, alerts will only be logged")
		publisher = notify.LogPublisher{}
	}
	defer publisher.Close()

	sweeper := notify.NewSweeper(notify.StoreSource(store, rt.policy, time.Now), publisher, rec)
	go sweeper.Run(ctx, rt.cfg.AlertInterval)

	srv := &http.Server{
		Addr:              ":" + rt.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("HTTP server shutdown failed")
		}
	}()

	log.WithFields(log.Fields{
		"port":    rt.cfg.Port,
		"storage": rt.cfg.StorageBackend,
	}).Info("HTTP server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("HTTP server stopped")
	return nil
}
