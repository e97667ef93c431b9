package integration

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/morning-alarm/internal/config"
	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/service/updater"
)

// serveRelease publishes a manifest with one file and returns the folder URL.
func serveRelease(t *testing.T, fileName string, fileBody []byte) string {
	t.Helper()

	checksum := sha512.Sum512(fileBody)

	manifestBytes, err := yaml.Marshal(&updater.Description{
		VersionNumber: "test-version",
		Files:         map[string]string{fileName: base64.StdEncoding.EncodeToString(checksum[:])},
		Executable:    "nonexistent-binary",
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/"+updater.VersionFilename, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(manifestBytes)
	})
	mux.HandleFunc("/"+fileName, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(fileBody)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts.URL
}

// TestUpdater_Run_FetchesAndApplies verifies the updater downloads and applies
// the release before failing to start the missing executable.
//
//nolint:paralleltest // Changes the working directory.
func TestUpdater_Run_FetchesAndApplies(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	addr := reservePort(t)
	startServer(t, addr, filepath.Join(dir, "roster.json"))

	fileName := "dummy.bin"
	fileBody := []byte("dummy-contents")

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress:      addr,
		ServerUpdateFolder: serveRelease(t, fileName, fileBody),
	}))

	// Run updater - expect error due to missing executable after download.
	err := updater.Run(context.Background(), &updater.Options{ConfigPath: cfgPath})
	require.Error(t, err)

	// Verify file was applied and the marker removed.
	got, err := os.ReadFile(fileName)
	require.NoError(t, err)
	require.Equal(t, fileBody, got)

	_, err = os.Stat(updater.MarkerFilename)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestUpdater_PostponedWhileAlarmSounds leaves files alone during an alarm.
//
//nolint:paralleltest // Changes the working directory.
func TestUpdater_PostponedWhileAlarmSounds(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	addr := reservePort(t)
	startServer(t, addr, filepath.Join(dir, "roster.json"))

	client := dialServer(t, addr)
	_, err := client.TriggerAlarm(context.Background(), domain.TypeWakeup, "maya")
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress:      addr,
		ServerUpdateFolder: serveRelease(t, "dummy.bin", []byte("dummy-contents")),
	}))

	err = updater.Run(context.Background(), &updater.Options{ConfigPath: cfgPath})
	require.ErrorIs(t, err, updater.ErrAlarmActive)

	_, err = os.Stat("dummy.bin")
	require.ErrorIs(t, err, os.ErrNotExist)
}
