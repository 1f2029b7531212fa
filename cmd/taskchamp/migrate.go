package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/taskchamp/internal/config"
	"github.com/dukerupert/taskchamp/internal/database"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := database.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", cfg.DBPath, version)
			return nil
		},
	}
}
