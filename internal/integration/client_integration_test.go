package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/morning-alarm/internal/service/client"
)

// TestClientCommands runs the presentation commands against a live daemon.
func TestClientCommands(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	startServer(t, addr, filepath.Join(t.TempDir(), "roster.json"))

	var out bytes.Buffer

	opts := &client.Options{
		ConfigPath:    filepath.Join(t.TempDir(), "missing-settings.yaml"),
		ServerAddress: addr,
		Out:           &out,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, client.Status(ctx, opts))
	require.Contains(t, out.String(), "No active alarm")

	out.Reset()
	require.NoError(t, client.Toggle(ctx, opts, "alex", "shoes"))
	require.Equal(t, "Alex: 1/4 tasks done\n", out.String())

	out.Reset()
	require.NoError(t, client.Roster(ctx, opts))
	require.Contains(t, out.String(), "[x] 👟 Put on shoes (shoes)")

	out.Reset()
	require.NoError(t, client.Trigger(ctx, opts, "departure", "alex"))
	require.Contains(t, out.String(), "BUS TIME! Hurry, Alex!")

	out.Reset()
	require.NoError(t, client.Dismiss(ctx, opts))
	require.Equal(t, "Alarm dismissed\n", out.String())

	require.Error(t, client.Trigger(ctx, opts, "nap", "alex"))
}
