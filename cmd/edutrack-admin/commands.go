package main

import (
	"context"

	"github.com/edutrack/adminportal/internal/bootstrap"
	"github.com/edutrack/adminportal/internal/config"
	"github.com/spf13/cobra"
)

// cliOptions holds the flag values shared by the subcommands
type cliOptions struct {
	configPath string
	tenantID   string
	assumeYes  bool
	dryRun     bool
	outPath    string
	email      string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "edutrack-admin",
		Short:         "Operator tooling for the EduTrack admin portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", bootstrap.ConfigPath(), "path to the YAML configuration")

	rootCmd.AddCommand(
		newMigrateCmd(opts),
		newFindDuplicatesCmd(opts),
		newRemoveDuplicatesCmd(opts),
		newExportStudentsCmd(opts),
		newTokenCmd(opts),
	)
	return rootCmd
}

func (o *cliOptions) loadConfig() (*config.Config, error) {
	return bootstrap.LoadConfigAndSetupLogger(o.configPath)
}

func (o *cliOptions) loadDependencies(ctx context.Context) (*bootstrap.Dependencies, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.BuildDependencies(ctx, cfg)
}
