package updater

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/logger"
	"github.com/oshokin/morning-alarm/internal/service/common"
	"github.com/oshokin/morning-alarm/internal/version"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

var errHashUnavailable = errors.New("hash function unavailable")

const (
	// VersionFilename stores the release manifest published to the update folder.
	VersionFilename = "morning-alarm-version.yaml"

	// MarkerFilename marks that the updater is running right now to avoid parallel execution.
	MarkerFilename = "morning-alarm-update-marker.bin"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate update file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// Base executable names; ExecutableName appends the extension when needed.
	baseServerExecutable   = "morning-alarm-server"
	baseClientExecutable   = "morning-alarm"
	baseUpdaterExecutable  = "morning-alarm-updater"
	basePackagerExecutable = "morning-alarm-packager"

	// markerLifetime is the period after which a stale update marker is ignored.
	markerLifetime = 30 * time.Second

	// defaultMapCapacity is the default initial capacity for maps and slices.
	defaultMapCapacity = 16

	// versionCommandTimeout is the timeout for executing version commands.
	versionCommandTimeout = 10 * time.Second
)

// ServerExecutable is the daemon binary for this platform.
func ServerExecutable() string {
	return common.ExecutableName(baseServerExecutable)
}

// UpdaterExecutable is the updater binary for this platform.
func UpdaterExecutable() string {
	return common.ExecutableName(baseUpdaterExecutable)
}

// Executables lists the binaries that must not run while files are replaced.
func Executables() []string {
	return []string{
		common.ExecutableName(baseClientExecutable),
		ServerExecutable(),
	}
}

// FilesWithChecksum returns the artifacts distributed for this platform.
// The updater replaces itself last, on its next run.
func FilesWithChecksum() []string {
	return []string{
		common.ExecutableName(baseClientExecutable),
		ServerExecutable(),
		UpdaterExecutable(),
		common.ExecutableName(basePackagerExecutable),
		config.DefaultConfigFilename,
	}
}

// Description contains metadata about a published release.
type Description struct {
	// VersionNumber is the semantic version of this release.
	VersionNumber string `yaml:"version"`
	// Files maps filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
	// Executable is started after the update is applied.
	Executable string `yaml:"executable"`
}

// NewDescription produces a Description for the running build.
func NewDescription() *Description {
	return &Description{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
		Executable:    ServerExecutable(),
	}
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// IsUpdaterRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsUpdaterRunningNow(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of an update marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The update marker is too old, attempting cleanup")

		if err = common.TerminateProcessByName(UpdaterExecutable()); err != nil {
			return true
		}

		return os.Remove(MarkerFilename) != nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		logger.Warnf(ctx, "Unable to read update marker: %v", err)
	}

	return false
}
