package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/morning-alarm/internal/domain/routine"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	s, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, s)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns the same roster.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "roster.json")
	repo := NewFileRepository(file)

	roster := routine.DefaultRoster()
	roster[1].Tasks[3].Done = true

	want := &Snapshot{
		Roster:      roster,
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want.Roster, got.Roster)
	require.True(t, want.LastUpdated.Equal(got.LastUpdated))

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.Error(t, repo.Save(context.Background(), nil))
}

// TestFileRepository_ReadsHandWrittenDocument accepts the documented JSON layout.
func TestFileRepository_ReadsHandWrittenDocument(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"children": [
			{"id": "sam", "name": "Sam", "wakeUpTime": "06:45", "busTime": "07:30",
			 "tasks": [{"id": "coat", "title": "Coat on", "emoji": "🧥", "done": false}]}
		],
		"lastUpdated": "2026-02-09T06:00:00Z"
	}`), 0o600))

	got, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Roster, 1)
	require.Equal(t, "06:45", got.Roster[0].WakeUpTime)
	require.Equal(t, "coat", got.Roster[0].Tasks[0].ID)
	require.Equal(t, time.Date(2026, time.February, 9, 6, 0, 0, 0, time.UTC), got.LastUpdated)
}

// TestFileRepository_Corrupt reports decode errors distinctly from ErrNotFound.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
