package client

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
)

// TestFormatAlarm renders each alarm type with the child's name.
func TestFormatAlarm(t *testing.T) {
	t.Parallel()

	require.Equal(t, "No active alarm", FormatAlarm(nil))

	at := time.Date(2026, time.February, 9, 7, 40, 0, 0, time.UTC)

	line := FormatAlarm(&domain.Alarm{
		Type:        domain.TypeWarning,
		Child:       &routine.Child{ID: "maya", Name: "Maya"},
		TriggeredAt: at,
	})
	require.Contains(t, line, "Almost Time!")
	require.Contains(t, line, "5 minutes until bus time, Maya!")
	require.Contains(t, line, "07:40")

	line = FormatAlarm(&domain.Alarm{Type: domain.TypeDeparture, Child: &routine.Child{ID: "alex"}, TriggeredAt: at})
	require.Contains(t, line, "Hurry, alex!")

	require.Equal(t, "Attention! An alarm is sounding.", FormatAlarm(&domain.Alarm{Type: "nap"}))
}

// TestWriteRoster prints schedule, countdown, progress and tasks.
func TestWriteRoster(t *testing.T) {
	t.Parallel()

	roster := routine.DefaultRoster()
	for i := range roster[1].Tasks {
		roster[1].Tasks[i].Done = true
	}

	roster = append(roster, routine.Child{ID: "baby", Name: "Baby"})

	var buf bytes.Buffer

	now := time.Date(2026, time.February, 9, 7, 40, 0, 0, time.Local)
	require.NoError(t, WriteRoster(&buf, roster, now))

	out := buf.String()
	require.Contains(t, out, "Maya [maya]")
	require.Contains(t, out, "wake up 07:00, bus 07:45 (Bus in 5m 0s)")
	require.Contains(t, out, "progress 0/4 (0%)")
	require.Contains(t, out, "[ ] 🦷 Brush teeth (brush)")
	require.Contains(t, out, "progress 4/4 (100%)")
	require.Contains(t, out, "[x] 👟 Put on shoes (shoes)")
	require.Contains(t, out, "All done, great job!")
	require.Contains(t, out, "wake up -, bus -\n")
}
