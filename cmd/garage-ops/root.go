package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/garage-ops/internal/analytics"
	"github.com/ukydev/garage-ops/internal/config"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/notify"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "garage-ops",
		Short:         "Garage maintenance tracker and analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional .env file read before the environment")

	root.AddCommand(
		newServeCmd(opts),
		newPredictCmd(opts),
		newTripCmd(opts),
		newAlertsCmd(opts),
	)
	return root
}

// runtime is what every command needs before touching the store.
type runtime struct {
	cfg    *config.Config
	policy analytics.Policy
}

func (o *rootOptions) load() (*runtime, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.SetupLogging(cfg); err != nil {
		return nil, err
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, policy: policy}, nil
}

// withStore opens the configured backend, runs fn and closes the store.
func (rt *runtime) withStore(ctx context.Context, fn func(db.GarageStore, db.UserCollection) error) error {
	store, users, err := db.Open(ctx, rt.cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()
	return fn(store, users)
}

// newPublisher returns an MQTT publisher when a broker is configured and the
// log publisher otherwise.
func newPublisher(cfg *config.Config) (notify.Publisher, error) {
	if cfg.MQTTBroker == "" {
		return notify.LogPublisher{}, nil
	}
	return notify.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
}
