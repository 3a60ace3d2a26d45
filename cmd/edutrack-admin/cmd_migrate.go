package main

import (
	"fmt"

	"github.com/edutrack/adminportal/internal/bootstrap"
	"github.com/edutrack/adminportal/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DatabaseDriverPostgres {
				return fmt.Errorf("migrate requires the %q database driver, got %q", config.DatabaseDriverPostgres, cfg.Database.Driver)
			}

			pool, applied, err := bootstrap.SetupDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
			return nil
		},
	}
}
