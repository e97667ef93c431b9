package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/morning-alarm/internal/config"
	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/logger"
	"github.com/oshokin/morning-alarm/internal/service/common"
)

// Options configures the connection shared by every client command.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Out receives command output; nil means stdout.
	Out io.Writer
}

// defaultRetryInterval defines the delay between attempts for retried commands.
const defaultRetryInterval = 1 * time.Second

// Status prints the current alarm.
func Status(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "morning-alarm")

	return withClient(ctx, opts, func(client *common.Client) error {
		current, err := client.CurrentAlarm(ctx)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(opts.out(), FormatAlarm(current))

		return err
	})
}

// Roster prints the roster with progress and bus countdowns.
func Roster(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "morning-alarm")

	return withClient(ctx, opts, func(client *common.Client) error {
		roster, lastUpdated, err := client.Roster(ctx)
		if err != nil {
			return err
		}

		logger.DebugKV(ctx, "Roster received", "children", len(roster), "last_updated", lastUpdated)

		return WriteRoster(opts.out(), roster, time.Now())
	})
}

// Dismiss dismisses the active alarm, retrying until the daemon answers or
// ctx is canceled. Dismissing while idle succeeds.
func Dismiss(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "morning-alarm")

	return withClient(ctx, opts, func(client *common.Client) error {
		// attempt tries once to dismiss, returns whether it completed.
		attempt := func() bool {
			if err := client.DismissAlarm(ctx); err != nil {
				// Log error but continue retrying for transient failures.
				logger.ErrorKV(ctx, "DismissAlarm failed", "error", err)
				return false
			}

			return true
		}

		// Attempt immediately before starting retry loop.
		if attempt() {
			_, err := fmt.Fprintln(opts.out(), "Alarm dismissed")
			return err
		}

		// Setup retry timer for subsequent attempts.
		ticker := time.NewTicker(defaultRetryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if attempt() {
					_, err := fmt.Fprintln(opts.out(), "Alarm dismissed")
					return err
				}
			}
		}
	})
}

// Trigger fires an alarm for a child immediately.
func Trigger(ctx context.Context, opts *Options, kind, childID string) error {
	ctx = logger.WithName(ctx, "morning-alarm")

	alarmType, err := domain.ParseType(kind)
	if err != nil {
		return err
	}

	return withClient(ctx, opts, func(client *common.Client) error {
		triggered, err := client.TriggerAlarm(ctx, alarmType, childID)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(opts.out(), FormatAlarm(triggered))

		return err
	})
}

// Toggle flips a task of a child and prints the child's progress.
func Toggle(ctx context.Context, opts *Options, childID, taskID string) error {
	ctx = logger.WithName(ctx, "morning-alarm")

	return withClient(ctx, opts, func(client *common.Client) error {
		child, err := client.ToggleTask(ctx, childID, taskID)
		if err != nil {
			return err
		}

		progress := child.Progress()

		_, err = fmt.Fprintf(opts.out(), "%s: %d/%d tasks done\n", child.Name, progress.Done, progress.Total)

		return err
	})
}

// Watch prints the current alarm and every change until ctx is canceled,
// reconnecting when the stream breaks.
func Watch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "morning-alarm")

	return withClient(ctx, opts, func(client *common.Client) error {
		for {
			err := client.WatchAlarm(ctx, func(current *domain.Alarm) {
				_, _ = fmt.Fprintf(opts.out(), "%s %s\n", time.Now().Format(time.TimeOnly), FormatAlarm(current))
			})
			if err != nil {
				logger.WarnKV(ctx, "Watch interrupted, reconnecting", "error", err)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(defaultRetryInterval):
			}
		}
	})
}

// withClient loads settings, connects and runs fn with the client.
func withClient(ctx context.Context, opts *Options, fn func(*common.Client) error) error {
	// Load settings from configuration file.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	// Connect to the daemon with timeout from config.
	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected", "server_address", serverAddress, "actor", actor)

	return fn(client)
}

// out returns the configured writer or stdout.
func (o *Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}

	return o.Out
}
