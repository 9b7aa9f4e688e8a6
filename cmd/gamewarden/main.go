package main

import (
	"context"
	"fmt"
	"gamewarden/internal/di"
	"gamewarden/internal/structures"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "develop"

	flags = structures.CliFlags{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "gamewarden",
		Short:   "Player presence and backup watcher for game servers",
		Version: version,
		RunE:    runDaemon,
	}
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "/etc/gamewarden/config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "Also log to the console at debug level")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Watch servers and run scheduled backups (default)",
			Args:  cobra.NoArgs,
			RunE:  runDaemon,
		},
		&cobra.Command{
			Use:   "poll-once",
			Short: "Poll every server once and post roster changes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := di.InitApp(&flags)
				if err != nil {
					return err
				}
				app.PollOnce(cmd.Context())
				return nil
			},
		},
		&cobra.Command{
			Use:   "backup-now <server>",
			Short: "Run a backup cycle for one server immediately",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := di.InitApp(&flags)
				if err != nil {
					return err
				}
				return app.BackupNow(cmd.Context(), args[0])
			},
		},
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	app, err := di.InitApp(&flags)
	if err != nil {
		return err
	}
	return app.Run()
}
