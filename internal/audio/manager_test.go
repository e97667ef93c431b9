package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errDeviceBusy = errors.New("device busy")

// newTestManager returns an initialized manager over a fake device.
func newTestManager(t *testing.T) (*Manager, *fakeDevice) {
	t.Helper()

	device := new(fakeDevice)
	m := NewManager(device, NewLoader(nil), "")
	require.NoError(t, m.Initialize(context.Background()))
	require.True(t, m.Ready())

	return m, device
}

// TestManager_NotReadyBeforeInitialize refuses playback while degraded.
func TestManager_NotReadyBeforeInitialize(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{initErr: errDeviceBusy}
	m := NewManager(device, nil, "")
	ctx := context.Background()

	require.ErrorIs(t, m.Initialize(ctx), errDeviceBusy)
	require.False(t, m.Ready())
	require.ErrorIs(t, m.StartAlarmSound(ctx, true), ErrNotReady)
	require.ErrorIs(t, m.PlayTaskCompletionChime(ctx), ErrNotReady)
	require.NoError(t, m.StopAlarmSound(ctx))

	// Retry succeeds once the device recovers.
	device.mu.Lock()
	device.initErr = nil
	device.mu.Unlock()

	require.NoError(t, m.Initialize(ctx))
	require.True(t, m.Ready())
	require.NoError(t, m.Initialize(ctx))

	// Initialize twice plus one retry from each playback call.
	require.Equal(t, 4, device.inits)
}

// TestManager_PlaybackRetriesInitialize recovers when the device appears later.
func TestManager_PlaybackRetriesInitialize(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{initErr: errDeviceBusy}
	m := NewManager(device, nil, "")
	ctx := context.Background()

	// Never armed: playback does not touch the device.
	require.ErrorIs(t, m.StartAlarmSound(ctx, true), ErrNotReady)
	require.Zero(t, device.inits)

	require.Error(t, m.Initialize(ctx))

	device.mu.Lock()
	device.initErr = nil
	device.mu.Unlock()

	require.NoError(t, m.StartAlarmSound(ctx, true))
	require.True(t, m.Ready())
	require.Equal(t, 2, device.inits)
	require.Len(t, device.played(), 1)
	require.True(t, device.played()[0].loop)
}

// TestManager_BadAlarmSourceKeepsDegraded fails initialization on an unloadable asset.
func TestManager_BadAlarmSourceKeepsDegraded(t *testing.T) {
	t.Parallel()

	m := NewManager(new(fakeDevice), nil, "builtin:siren")

	require.ErrorIs(t, m.Initialize(context.Background()), ErrUnknownBuiltin)
	require.False(t, m.Ready())
}

// TestManager_SingleFlightAlarm releases the previous handle before starting a new one.
func TestManager_SingleFlightAlarm(t *testing.T) {
	t.Parallel()

	m, device := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.StartAlarmSound(ctx, true))
	require.NoError(t, m.StartAlarmSound(ctx, true))

	handles := device.played()
	require.Len(t, handles, 2)
	require.Equal(t, 1, handles[0].stops)
	require.Zero(t, handles[1].stops)
	require.True(t, handles[1].loop)
	require.Equal(t, BuiltinAlarm, handles[1].source)

	require.NoError(t, m.StopAlarmSound(ctx))
	require.Equal(t, 1, handles[1].stops)

	// Idle stop is a no-op.
	require.NoError(t, m.StopAlarmSound(ctx))
	require.Equal(t, 1, handles[1].stops)
}

// TestManager_ChimeOverlapsAlarm plays the chime on its own handle.
func TestManager_ChimeOverlapsAlarm(t *testing.T) {
	t.Parallel()

	m, device := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.StartAlarmSound(ctx, true))
	require.NoError(t, m.PlayTaskCompletionChime(ctx))

	handles := device.played()
	require.Len(t, handles, 2)
	require.Equal(t, BuiltinChime, handles[1].source)
	require.False(t, handles[1].loop)
	require.Zero(t, handles[0].stops)

	// A finished chime is forgotten.
	handles[1].finish()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()

		return len(m.chimes) == 0
	}, time.Second, 5*time.Millisecond)
}

// TestManager_CloseStopsEverything tears down the alarm and running chimes.
func TestManager_CloseStopsEverything(t *testing.T) {
	t.Parallel()

	m, device := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.StartAlarmSound(ctx, true))
	require.NoError(t, m.PlayTaskCompletionChime(ctx))
	require.NoError(t, m.Close(ctx))

	for _, h := range device.played() {
		require.Equal(t, 1, h.stops)
	}

	require.False(t, m.Ready())
	require.ErrorIs(t, m.StartAlarmSound(ctx, false), ErrNotReady)
}
