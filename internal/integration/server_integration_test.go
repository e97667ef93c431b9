package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/service/common"
	"github.com/oshokin/morning-alarm/internal/service/server"
)

// quietScript stands in for the alarm sound: the "sh" player runs it.
const quietScript = "sleep 0.2\n"

// startServer runs the daemon with a temporary config until the test ends.
// The player is "sh" and the alarm "sound" is a short sleep script.
func startServer(t *testing.T, addr, rosterPath string) {
	t.Helper()

	dir := t.TempDir()

	soundPath := filepath.Join(dir, "alarm.sh")
	require.NoError(t, os.WriteFile(soundPath, []byte(quietScript), 0o600))

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: addr,
		RosterFile:    rosterPath,
		AlarmSound:    soundPath,
		Player:        "sh",
		Timeout:       5 * time.Second,
		LogLevel:      "warn",
	}))

	// Create cancellable context for server lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    cfgPath,
			AllowMultiple: true,
		})
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	// Wait until the daemon answers.
	client, err := common.Dial(context.Background(), addr, common.WithCallTimeout(time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	require.Eventually(t, func() bool {
		_, err := client.CurrentAlarm(context.Background())
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

// dialServer connects a client that is closed when the test ends.
func dialServer(t *testing.T, addr string) *common.Client {
	t.Helper()

	client, err := common.Dial(context.Background(), addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}
