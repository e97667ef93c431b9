package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	repository "github.com/oshokin/morning-alarm/internal/repository/roster"
)

// TestGRPC_RosterSeededAndToggled seeds the default roster and persists task toggles.
func TestGRPC_RosterSeededAndToggled(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	rosterPath := filepath.Join(t.TempDir(), "roster.json")

	startServer(t, addr, rosterPath)

	ctx := context.Background()
	client := dialServer(t, addr)

	// The daemon seeds the two default children.
	roster, lastUpdated, err := client.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, "maya", roster[0].ID)
	require.False(t, lastUpdated.IsZero())

	// Toggle a task and verify it reaches the roster file.
	child, err := client.ToggleTask(ctx, "maya", "brush")
	require.NoError(t, err)
	require.Equal(t, 1, child.Progress().Done)

	snapshot, err := repository.NewFileRepository(rosterPath).Load(ctx)
	require.NoError(t, err)

	maya := snapshot.Roster.Find("maya")
	require.NotNil(t, maya)
	require.True(t, maya.Tasks[0].Done)

	// Unknown children and tasks are reported as NotFound.
	_, err = client.ToggleTask(ctx, "maya", "juggle")
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.TriggerAlarm(ctx, domain.TypeWakeup, "nobody")
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestGRPC_WatchTriggerDismiss streams the alarm through a manual trigger and dismiss.
func TestGRPC_WatchTriggerDismiss(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	startServer(t, addr, filepath.Join(t.TempDir(), "roster.json"))

	client := dialServer(t, addr)

	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *domain.Alarm, 8)
	watchDone := make(chan error, 1)

	go func() {
		watchDone <- client.WatchAlarm(watchCtx, func(current *domain.Alarm) {
			updates <- current
		})
	}()

	// The stream starts with the current, idle state.
	require.Nil(t, receive(t, updates))

	triggered, err := client.TriggerAlarm(context.Background(), domain.TypeWarning, "alex")
	require.NoError(t, err)
	require.Equal(t, domain.TypeWarning, triggered.Type)

	got := receive(t, updates)
	require.NotNil(t, got)
	require.Equal(t, domain.TypeWarning, got.Type)
	require.Equal(t, "alex", got.ChildID())

	current, err := client.CurrentAlarm(context.Background())
	require.NoError(t, err)
	require.True(t, current.SameCondition(triggered))

	require.NoError(t, client.DismissAlarm(context.Background()))
	require.Nil(t, receive(t, updates))

	// Dismissing again is a no-op.
	require.NoError(t, client.DismissAlarm(context.Background()))

	cancel()
	require.NoError(t, <-watchDone)
}

// TestServer_RaisesScheduledWakeup lets the clock raise a wake-up alarm.
func TestServer_RaisesScheduledWakeup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Stay clear of a minute boundary between writing the roster and the first tick.
	if now := time.Now(); now.Second() >= 55 {
		time.Sleep(time.Duration(61-now.Second()) * time.Second)
	}

	rosterPath := filepath.Join(t.TempDir(), "roster.json")
	roster := routine.Roster{{
		ID:         "sam",
		Name:       "Sam",
		WakeUpTime: routine.FormatClock(time.Now()),
		BusTime:    routine.FormatClock(time.Now().Add(2 * time.Hour)),
	}}

	require.NoError(t, repository.NewFileRepository(rosterPath).Save(ctx, &repository.Snapshot{
		Roster:      roster,
		LastUpdated: time.Now(),
	}))

	addr := reservePort(t)
	startServer(t, addr, rosterPath)

	client := dialServer(t, addr)

	var current *domain.Alarm

	require.Eventually(t, func() bool {
		var err error

		current, err = client.CurrentAlarm(ctx)

		return err == nil && current != nil
	}, 5*time.Second, 50*time.Millisecond)

	require.Equal(t, domain.TypeWakeup, current.Type)
	require.Equal(t, "sam", current.ChildID())
}

// receive waits for the next streamed alarm.
func receive(t *testing.T, updates <-chan *domain.Alarm) *domain.Alarm {
	t.Helper()

	select {
	case got := <-updates:
		return got
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no alarm update received")
		return nil
	}
}
