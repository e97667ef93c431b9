package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/service/packager"
	"github.com/oshokin/morning-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// offline skips the daemon reachability check.
	offline bool

	// rootCmd represents the base command for preparing update metadata.
	rootCmd = &cobra.Command{
		Use:   "morning-alarm-packager [server-address] [update-folder]",
		Short: "Prepare release metadata for distribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:            configPath,
				ServerAddress:         args[0],
				UpdateFolder:          args[1],
				SkipReachabilityCheck: offline,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the morning-alarm-packager CLI and exits with non-zero status on error.
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
	rootCmd.Flags().BoolVar(&offline, "offline", false, "do not check that the daemon is reachable")
}
