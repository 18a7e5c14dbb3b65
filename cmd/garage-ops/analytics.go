package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ukydev/garage-ops/internal/analytics"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/models"
	"github.com/ukydev/garage-ops/internal/notify"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <vehicle-id>",
		Short: "Forecast the next service date of a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			return rt.withStore(cmd.Context(), func(store db.GarageStore, _ db.UserCollection) error {
				v, err := store.FindVehicleByID(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("vehicle %s: %w", args[0], err)
				}
				p := analytics.PredictNextService(v, v.Services, rt.policy, time.Now())
				if p == nil {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: not enough service history for a prediction\n", v.DisplayName())
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					Vehicle string `json:"vehicle"`
					*analytics.Prediction
					Overdue bool `json:"overdue"`
				}{v.DisplayName(), p, p.Overdue()})
			})
		},
	}
}

func newTripCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trip <vehicle-id> <distance-km>",
		Short: "Simulate the maintenance impact of a planned trip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			distance, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid distance %q: %w", args[1], err)
			}
			rt, err := opts.load()
			if err != nil {
				return err
			}
			return rt.withStore(cmd.Context(), func(store db.GarageStore, _ db.UserCollection) error {
				v, err := store.FindVehicleByID(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("vehicle %s: %w", args[0], err)
				}
				sim := analytics.SimulateTrip(v, distance, rt.policy)
				if sim == nil {
					return fmt.Errorf("distance must be positive, got %s", args[1])
				}
				return printJSON(cmd.OutOrStdout(), sim)
			})
		},
	}
}

func newAlertsCmd(opts *rootOptions) *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List the current alerts, optionally publishing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			return rt.withStore(cmd.Context(), func(store db.GarageStore, _ db.UserCollection) error {
				alerts, err := notify.StoreSource(store, rt.policy, time.Now)(cmd.Context())
				if err != nil {
					return err
				}
				if err := writeAlerts(cmd.OutOrStdout(), alerts); err != nil {
					return err
				}
				if !publish {
					return nil
				}
				return publishAll(cmd, rt, alerts)
			})
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "publish every alert to the configured broker")
	return cmd
}

func writeAlerts(w io.Writer, alerts []models.Notification) error {
	if len(alerts) == 0 {
		_, err := fmt.Fprintln(w, "no alerts")
		return err
	}
	for _, a := range alerts {
		if _, err := fmt.Fprintf(w, "%-8s %s: %s\n", a.Level, a.Title, a.Message); err != nil {
			return err
		}
	}
	return nil
}

func publishAll(cmd *cobra.Command, rt *runtime, alerts []models.Notification) error {
	publisher, err := newPublisher(rt.cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	failed := 0
	for _, a := range alerts {
		if err := publisher.Publish(cmd.Context(), a); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "publish %s: %v\n", a.ID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d alerts not published", failed, len(alerts))
	}
	return nil
}
