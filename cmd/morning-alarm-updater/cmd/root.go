package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/service/updater"
	"github.com/oshokin/morning-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// force updates even while an alarm is sounding.
	force bool

	// rootCmd represents the base command for downloading and applying updates.
	rootCmd = &cobra.Command{
		Use:   "morning-alarm-updater",
		Short: "Download and apply updates from the update folder",
		Long: `Compares the installed morning-alarm release with the manifest published in
update_folder, replaces changed files and starts the daemon.

The update is postponed while the daemon is sounding an alarm unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &updater.Options{
				ConfigPath: configPath,
				Force:      force,
			}

			return updater.Run(ctx, options)
		},
	}
)

// Execute runs the morning-alarm-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "update even while an alarm is sounding")
}
