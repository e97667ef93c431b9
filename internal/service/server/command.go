package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/morning-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/morning-alarm/internal/audio"
	"github.com/oshokin/morning-alarm/internal/clock"
	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/engine"
	"github.com/oshokin/morning-alarm/internal/logger"
	pb "github.com/oshokin/morning-alarm/internal/pb/v1"
	repository "github.com/oshokin/morning-alarm/internal/repository/roster"
	"github.com/oshokin/morning-alarm/internal/service/common"
)

// Options controls the morning-alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// RosterFile specifies the path to persist the roster JSON.
	RosterFile string
	// AllowMultiple skips the single instance check.
	AllowMultiple bool
	// LogLevel overrides the log level from settings when specified.
	LogLevel string
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// ErrAlreadyRunning indicates that another daemon owns the alarm.
	ErrAlreadyRunning = errors.New("another morning-alarm-server is already running")
)

// Run starts the daemon and blocks until context is canceled or the gRPC server stops.
// Loads configuration first, then wires the roster, audio, state machine and clock.
//
//nolint:funlen // Wiring reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "morning-alarm-server")

	// Load configuration first to get server settings.
	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Command line level wins over settings.
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	applyLogLevel(ctx, settings.LogLevel)

	// Two daemons would ring the same alarm twice.
	if !opts.AllowMultiple {
		if err = ensureSingleInstance(); err != nil {
			return err
		}
	}

	// Use RosterFile from config unless overridden by command line option.
	rosterFile := settings.RosterFile
	if opts.RosterFile != "" {
		rosterFile = opts.RosterFile
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// Prepare audio; failure leaves alarms silent but visible.
	audioCtx := logger.WithNamedLevel(ctx, "audio", settings.LogLevels["audio"])
	manager := audio.NewManager(
		audio.NewExecDevice(settings.Player, ""),
		audio.NewLoader(&http.Client{Timeout: settings.Timeout}),
		settings.AlarmSound,
	)

	// A failed start is retried by later playback calls.
	_ = manager.Initialize(audioCtx)

	defer func() {
		if err := manager.Close(audioCtx); err != nil {
			logger.WarnKV(ctx, "Failed to close audio", "error", err)
		}
	}()

	// Create the state machine and the roster service.
	engineCtx := logger.WithNamedLevel(ctx, "engine", settings.LogLevels["engine"])
	machine := engine.NewMachine(manager)

	svc, err := newService(
		engineCtx,
		repository.NewFileRepository(rosterFile),
		machine,
		manager,
		withLocation(settings.Location()),
	)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with alarm service.
	grpcCtx := logger.WithNamedLevel(ctx, "grpc", settings.LogLevels["grpc"])
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(loggerInterceptor(grpcCtx)),
		grpc.ChainStreamInterceptor(streamLoggerInterceptor(grpcCtx)))
	pb.RegisterAlarmServiceServer(grpcServer, api.NewServer(svc, api.WithStop(ctx.Done())))

	logger.InfoKV(ctx, "Morning alarm server listening",
		"listen_address", listenAddress,
		"roster_file", rosterFile,
		"timezone", settings.Timezone,
		"tick_interval", settings.TickInterval.String(),
		"audio_ready", manager.Ready())

	// Evaluate the roster on every tick until shutdown. The clock stops on
	// every return path before the deferred audio Close runs.
	stopClock := startClock(engineCtx, settings.TickInterval, svc.Tick)
	defer stopClock()

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// startClock calls fn on every tick until the returned stop function is
// called or ctx is canceled. stop returns once the loop has exited.
func startClock(ctx context.Context, interval time.Duration, fn func(context.Context, time.Time)) func() {
	clockCtx, cancel := context.WithCancel(ctx)
	clockDone := make(chan struct{})

	go func() {
		defer close(clockDone)

		source := clock.Source{Interval: interval}
		source.Run(clockCtx, fn)
	}()

	return func() {
		cancel()
		<-clockDone
	}
}

// applyLogLevel sets the global level from settings when configured.
func applyLogLevel(ctx context.Context, level string) {
	if level == "" {
		return
	}

	if lvl, ok := logger.ParseLogLevel(level); ok {
		logger.SetLevel(lvl)
		logger.DebugKV(ctx, "Log level set", "level", lvl.String())
	}
}

// ensureSingleInstance fails when another daemon with this executable name runs.
func ensureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	pids, err := common.FindOtherProcesses(filepath.Base(executable))
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if len(pids) > 0 {
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pids[0])
	}

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}

// loggerInterceptor logs every unary call with its duration.
func loggerInterceptor(ctx context.Context) grpc.UnaryServerInterceptor {
	return func(
		callCtx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		started := time.Now()
		resp, err := handler(logger.ToContext(callCtx, logger.FromContext(ctx)), req)

		logger.DebugKV(ctx, "Handled call",
			"method", info.FullMethod,
			"duration", time.Since(started).String(),
			"error", err)

		return resp, err
	}
}

// streamLoggerInterceptor logs stream lifetimes.
func streamLoggerInterceptor(ctx context.Context) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		started := time.Now()
		err := handler(srv, ss)

		logger.DebugKV(ctx, "Stream closed",
			"method", info.FullMethod,
			"duration", time.Since(started).String(),
			"error", err)

		return err
	}
}
