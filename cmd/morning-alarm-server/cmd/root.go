package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/service/server"
	"github.com/oshokin/morning-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// rosterFile path where the roster is persisted.
	rosterFile string
	// allowMultiple skips the single instance check.
	allowMultiple bool
	// logLevel overrides the level from settings.
	logLevel string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "morning-alarm-server [listen-address]",
		Short: "Run the morning alarm daemon.",
		Long: `Starts the morning alarm daemon: evaluates the children's roster every tick,
raises wake-up, bus warning and departure alarms, plays the alarm sound and serves
the gRPC API used by the morning-alarm client.

Only the port from server_addr in the settings is used for listening unless a listen
address is provided as argument (e.g., :9090, 0.0.0.0:50551).
The roster is persisted to a JSON file and seeded with two example children on first start.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				RosterFile:    rosterFile,
				AllowMultiple: allowMultiple,
				LogLevel:      logLevel,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the morning-alarm-server CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&rosterFile, "roster-file", "r", "", "path to persist the roster (overrides roster_file)")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single instance check")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")
}
