package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/morning-alarm/internal/config"
	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/logger"
	client "github.com/oshokin/morning-alarm/internal/service/client"
	"github.com/oshokin/morning-alarm/internal/version"
)

// errUnknownLogLevel is returned for levels zap does not know.
var errUnknownLogLevel = errors.New("unknown log level")

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from settings.
	serverAddress string
	// logLevel sets the client log level.
	logLevel string

	// rootCmd represents the base command of the presentation client.
	rootCmd = &cobra.Command{
		Use:   "morning-alarm",
		Short: "Talk to the morning alarm daemon.",
		Long: `Shows and controls the morning alarm daemon: the current alarm, the children's
roster with task progress and bus countdowns, and a live alarm feed.
Alarms can be dismissed or triggered by hand, and tasks toggled as they get done.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}

			lvl, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%q: %w", logLevel, errUnknownLogLevel)
			}

			logger.SetLevel(lvl)

			return nil
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the current alarm.",
		Args:  cobra.NoArgs,
		RunE: runWithSignals(func(ctx context.Context, _ []string) error {
			return client.Status(ctx, options())
		}),
	}

	rosterCmd = &cobra.Command{
		Use:   "roster",
		Short: "Print children, schedules, bus countdowns and tasks.",
		Args:  cobra.NoArgs,
		RunE: runWithSignals(func(ctx context.Context, _ []string) error {
			return client.Roster(ctx, options())
		}),
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print every alarm change until interrupted.",
		Args:  cobra.NoArgs,
		RunE: runWithSignals(func(ctx context.Context, _ []string) error {
			return client.Watch(ctx, options())
		}),
	}

	dismissCmd = &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss the active alarm.",
		Long:  "Sends dismiss requests to the daemon until one succeeds. Dismissing while no alarm is active is not an error.",
		Args:  cobra.NoArgs,
		RunE: runWithSignals(func(ctx context.Context, _ []string) error {
			return client.Dismiss(ctx, options())
		}),
	}

	triggerCmd = &cobra.Command{
		Use:       "trigger [wakeup|warning|departure] [child-id]",
		Short:     "Trigger an alarm for a child right now.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.TypeWakeup), string(domain.TypeWarning), string(domain.TypeDeparture)},
		RunE: runWithSignals(func(ctx context.Context, args []string) error {
			return client.Trigger(ctx, options(), args[0], args[1])
		}),
	}

	toggleCmd = &cobra.Command{
		Use:   "toggle [child-id] [task-id]",
		Short: "Mark a task done or not done.",
		Args:  cobra.ExactArgs(2),
		RunE: runWithSignals(func(ctx context.Context, args []string) error {
			return client.Toggle(ctx, options(), args[0], args[1])
		}),
	}
)

// Execute runs the morning-alarm CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runWithSignals adapts fn to cobra with graceful shutdown handling.
func runWithSignals(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return fn(ctx, args)
	}
}

// options builds client options from the persistent flags.
func options() *client.Options {
	return &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "daemon address (overrides server_addr)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(statusCmd, rosterCmd, watchCmd, dismissCmd, triggerCmd, toggleCmd)
}
