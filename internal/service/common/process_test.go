//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFindOtherProcesses never reports the current process.
func TestFindOtherProcesses(t *testing.T) {
	t.Parallel()

	pids, err := FindOtherProcesses("morning-alarm-no-such-binary")
	require.NoError(t, err)
	require.Empty(t, pids)

	require.NoError(t, TerminateProcessByName("morning-alarm-no-such-binary"))
}

// TestExecutableName appends the platform extension.
func TestExecutableName(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		require.Equal(t, "morning-alarm.exe", ExecutableName("morning-alarm"))
	} else {
		require.Equal(t, "morning-alarm", ExecutableName("morning-alarm"))
	}
}

// TestSameExecutable accepts truncated process names.
func TestSameExecutable(t *testing.T) {
	t.Parallel()

	require.True(t, sameExecutable("morning-alarm", "morning-alarm"))
	require.True(t, sameExecutable("morning-alarm-s", "morning-alarm-server"))
	require.False(t, sameExecutable("morning-alarm", "morning-alarm-server"))
	require.False(t, sameExecutable("morning-alarm-u", "morning-alarm-server"))
}
