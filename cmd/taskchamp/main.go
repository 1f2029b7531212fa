package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/taskchamp/internal/config"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Persistent flags are bound into one
// viper instance so flags win over env vars, which win over the config file.
func newRootCmd() *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:           "taskchamp",
		Short:         "Household task and reward tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				v.SetConfigFile(path)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to a taskchamp.yaml config file")
	flags.String("db", "", "SQLite database path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json, console)")
	for key, name := range map[string]string{
		"db_path":    "db",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	rootCmd.AddCommand(
		newServeCmd(v),
		newMigrateCmd(v),
		newRefreshCmd(v),
	)

	return rootCmd
}
