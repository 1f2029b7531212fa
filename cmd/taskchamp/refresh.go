package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/config"
	"github.com/dukerupert/taskchamp/internal/database"
	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/logging"
	"github.com/dukerupert/taskchamp/internal/screen"
	"github.com/dukerupert/taskchamp/internal/viewstate"
)

// newRefreshCmd starts a new day for every admin, for use from cron.
func newRefreshCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Args:  cobra.NoArgs,
		Short: "Fold daily points into totals and reset tasks for every admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			gw := gateway.New(db, cfg.Gateway, gateway.WithLogger(logger))
			return refreshAll(cmd.Context(), gw, cfg.Poll, logger)
		},
	}
}

func refreshAll(ctx context.Context, gw *gateway.Local, poll screen.PollConfig, logger *slog.Logger) error {
	admins, err := gw.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	var errs []error
	for _, a := range admins {
		actx := auth.WithAuth(ctx, auth.AuthContext{UserID: a.UserID, AdminID: a.ID})
		notes := &screen.Notifications{}
		d := screen.NewDashboard(screen.Deps{
			Gateway:  gw,
			State:    viewstate.New(),
			Notifier: notes,
			Logger:   logger.With("component", "refresh", "admin_id", a.ID),
			Poll:     poll,
		})
		ack, err := d.RefreshDay(actx)
		if err != nil {
			errs = append(errs, fmt.Errorf("admin %d: %w", a.ID, err))
			continue
		}
		logger.Info("day refreshed", "admin_id", a.ID, "date", ack.TaskDate, "tasks_archived", ack.TasksArchived)
	}
	return errors.Join(errs...)
}
