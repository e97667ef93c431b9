package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/logger"
	"github.com/oshokin/morning-alarm/internal/service/common"
)

var (
	// ErrAlarmActive is returned when the daemon is sounding an alarm.
	ErrAlarmActive = errors.New("an alarm is active, update postponed")

	errUpdaterAlreadyRunning = errors.New("the updater is already running")
	errNoUpdateFolder        = errors.New("update folder is not configured")
	errEmptyDescription      = errors.New("update description is empty")
	errNoChecksum            = errors.New("checksum missing for file")
	errBadHTTPStatus         = errors.New("unexpected http status")
	errNoExecutable          = errors.New("manifest names no executable")
	errUnsupportedOS         = errors.New("os not supported")
	errUnsafeFilename        = errors.New("manifest file name escapes the working directory")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Force applies the release even while an alarm is sounding.
	Force bool
}

// runner holds the mutable state of a single update execution.
type runner struct {
	// description is the remote manifest describing the release.
	description *Description
	// cfg is the configuration loaded from YAML.
	cfg *config.Config
	// httpClient downloads the manifest and artifacts.
	httpClient *http.Client
	// localVersion is the installed daemon version, empty on first install.
	localVersion string
	// changedFiles lists files whose checksum differs from the manifest.
	changedFiles []string
	// temporaryDirectory is where new files are downloaded before apply.
	temporaryDirectory string
	// downloadedFiles maps logical names to local temp paths.
	downloadedFiles map[string]string
}

// Run executes the updater lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "morning-alarm-updater")

	up, err := newRunner(ctx, opts)
	if err != nil {
		// The marker belongs to the other updater.
		if !errors.Is(err, errUpdaterAlreadyRunning) {
			up.cleanup(ctx)
		}

		return err
	}

	defer up.cleanup(ctx)

	if err = up.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Updater run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Updater completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
// It also refuses to continue while the daemon is sounding an alarm.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	u := &runner{
		downloadedFiles: make(map[string]string, defaultMapCapacity),
	}

	if IsUpdaterRunningNow(ctx) {
		return u, errUpdaterAlreadyRunning
	}

	updateMarker, err := os.Create(MarkerFilename)
	if err != nil {
		return u, err
	}

	if err = updateMarker.Close(); err != nil {
		return u, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return u, err
	}

	if settings.ServerUpdateFolder == "" {
		return u, errNoUpdateFolder
	}

	u.cfg = settings
	u.httpClient = &http.Client{Timeout: settings.Timeout}

	if opts.Force {
		return u, nil
	}

	if err = u.ensureNoActiveAlarm(ctx); err != nil {
		return u, err
	}

	return u, nil
}

// Run executes the workflow for this runner instance:
// 1) Detect local version.
// 2) Fetch remote manifest.
// 3) Compare versions and checksums.
// 4) Stop running binaries, download and apply files if needed.
// 5) Start the daemon when it is not running.
func (u *runner) Run(ctx context.Context) error {
	// Preparation.
	if err := u.prepareForUpdate(ctx); err != nil {
		return err
	}

	// Determine if update is needed.
	versionUpdateNeeded, err := u.determineUpdateNeeded(ctx)
	if err != nil {
		return err
	}

	// Execute update if needed.
	if err = u.executeUpdateIfNeeded(ctx, versionUpdateNeeded); err != nil {
		return err
	}

	// Start the daemon.
	logger.Info(ctx, "Starting required executables")

	if err = u.startRequiredExecutables(ctx); err != nil {
		return fmt.Errorf("start required executables: %w", err)
	}

	return nil
}

// prepareForUpdate detects the installed version and downloads the manifest.
func (u *runner) prepareForUpdate(ctx context.Context) error {
	logger.Info(ctx, "Detecting local version from installed executable")

	u.localVersion = u.detectLocalVersion(ctx)

	logger.Info(ctx, "Downloading the update description from the server")

	if err := u.fillUpdateDescription(ctx); err != nil {
		return fmt.Errorf("download update description: %w", err)
	}

	return nil
}

// determineUpdateNeeded checks if an update is required based on version and checksum comparison.
func (u *runner) determineUpdateNeeded(ctx context.Context) (bool, error) {
	versionUpdateNeeded := u.compareVersions(ctx, u.localVersion, u.description.VersionNumber)

	logger.Info(ctx, "Verifying the checksum of local files")

	if err := u.validateChecksum(); err != nil {
		return false, fmt.Errorf("validate checksum: %w", err)
	}

	return versionUpdateNeeded, nil
}

// executeUpdateIfNeeded performs the update process if either version or file updates are needed.
func (u *runner) executeUpdateIfNeeded(ctx context.Context, versionUpdateNeeded bool) error {
	if !versionUpdateNeeded && len(u.changedFiles) == 0 {
		logger.Info(ctx, "No update required - version and files are current")
		return nil
	}

	u.logUpdateReasons(ctx, versionUpdateNeeded)

	logger.Info(ctx, "Downloading update files to a temporary folder")

	if err := u.downloadFiles(ctx); err != nil {
		return fmt.Errorf("download update files: %w", err)
	}

	logger.Info(ctx, "Terminating morning-alarm processes")

	for _, executable := range Executables() {
		if err := common.TerminateProcessByName(executable); err != nil {
			return fmt.Errorf("terminate %s: %w", executable, err)
		}
	}

	logger.Info(ctx, "Updating local files")

	if err := u.updateFiles(ctx); err != nil {
		return fmt.Errorf("update local files: %w", err)
	}

	return nil
}

// logUpdateReasons logs the reasons why an update is needed.
func (u *runner) logUpdateReasons(ctx context.Context, versionUpdateNeeded bool) {
	if versionUpdateNeeded {
		logger.InfoKV(ctx, "Version update required", "reason", "version_mismatch")
	}

	if len(u.changedFiles) > 0 {
		logger.InfoKV(ctx, "File update required", "reason", "checksum_mismatch", "files", u.changedFiles)
	}
}

// detectLocalVersion asks the installed daemon for its version.
// An empty result means a first install.
func (u *runner) detectLocalVersion(ctx context.Context) string {
	cmdCtx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	executable := ServerExecutable()

	output, err := exec.CommandContext(cmdCtx, filepath.Join(".", executable), "version", "--short").Output()
	if err != nil {
		logger.Warnf(ctx, "Could not get local version from %s: %v", executable, err)
		return ""
	}

	return strings.TrimSpace(string(output))
}

// compareVersions compares local vs remote versions and logs the decision.
func (u *runner) compareVersions(ctx context.Context, localVersion, remoteVersion string) bool {
	if localVersion == "" {
		logger.Info(ctx, "No local version detected, update needed")
		return true
	}

	if localVersion != remoteVersion {
		logger.InfoKV(ctx, "Version mismatch detected",
			"local", localVersion, "remote", remoteVersion)

		return true
	}

	logger.InfoKV(ctx, "Versions match, checking file integrity",
		"version", localVersion)

	return false
}

// ensureNoActiveAlarm asks the daemon whether an alarm is sounding.
// An unreachable daemon is not an error: there is nothing to interrupt.
func (u *runner) ensureNoActiveAlarm(ctx context.Context) error {
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, u.cfg.ServerAddress, common.WithCallTimeout(u.cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	current, err := client.CurrentAlarm(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Daemon is not reachable, continuing", "address", u.cfg.ServerAddress, "error", err)
		return nil
	}

	if current != nil {
		return fmt.Errorf("%s alarm for %s: %w", current.Type, current.ChildID(), ErrAlarmActive)
	}

	logger.InfoKV(ctx, "Daemon is idle", "address", u.cfg.ServerAddress)

	return nil
}

// fillUpdateDescription downloads and parses the remote update manifest.
func (u *runner) fillUpdateDescription(ctx context.Context) error {
	response, err := u.getFileBodyFromServer(ctx, VersionFilename)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return err
	}

	for fileName := range desc.Files {
		if !isLocalFilename(fileName) {
			return fmt.Errorf("%q: %w", fileName, errUnsafeFilename)
		}
	}

	u.description = &desc

	return nil
}

// getFileBodyFromServer fetches a file from the update folder.
func (u *runner) getFileBodyFromServer(ctx context.Context, fileName string) (*http.Response, error) {
	serverUpdateURL, err := url.Parse(u.cfg.ServerUpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	serverUpdateURL.Path = path.Join(serverUpdateURL.Path, fileName)
	finalURL := serverUpdateURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// validateChecksum records every local file whose checksum differs from the manifest.
func (u *runner) validateChecksum() error {
	if u.description == nil {
		return errEmptyDescription
	}

	u.changedFiles = u.changedFiles[:0]

	for _, fileName := range u.manifestFiles() {
		needsUpdate, err := u.validateFileChecksum(fileName)
		if err != nil {
			return err
		}

		if needsUpdate {
			u.changedFiles = append(u.changedFiles, fileName)
		}
	}

	return nil
}

// manifestFiles returns the manifest's file names in a stable order.
func (u *runner) manifestFiles() []string {
	files := make([]string, 0, len(u.description.Files))
	for fileName := range u.description.Files {
		files = append(files, fileName)
	}

	slices.Sort(files)

	return files
}

// validateFileChecksum reports whether a single file differs from the manifest.
func (u *runner) validateFileChecksum(fileName string) (bool, error) {
	serverChecksum, err := u.getServerChecksum(fileName)
	if err != nil {
		return false, err
	}

	clientChecksum, err := getClientChecksum(fileName)
	if err != nil {
		return false, err
	}

	return !bytes.Equal(serverChecksum, clientChecksum), nil
}

// getServerChecksum retrieves and decodes the manifest checksum for a file.
func (u *runner) getServerChecksum(fileName string) ([]byte, error) {
	serverFileBase64, hasDescription := u.description.Files[fileName]
	if !hasDescription {
		return nil, fmt.Errorf("checksum for %s: %w", fileName, errNoChecksum)
	}

	return base64.StdEncoding.DecodeString(serverFileBase64)
}

// getClientChecksum returns the local checksum, nil when the file doesn't exist.
func getClientChecksum(fileName string) ([]byte, error) {
	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	return GetFileChecksum(fileName)
}

// downloadFiles downloads every changed file into a temporary directory.
// A version change downloads the whole release.
func (u *runner) downloadFiles(ctx context.Context) error {
	temporaryDirectory, err := os.MkdirTemp("", "morning-alarm-updater-")
	if err != nil {
		return err
	}

	u.temporaryDirectory = temporaryDirectory

	files := u.changedFiles
	if len(files) == 0 {
		files = u.manifestFiles()
	}

	for _, fileName := range files {
		if err = u.downloadFile(ctx, fileName); err != nil {
			return err
		}
	}

	return nil
}

// downloadFile stores one release file in the temporary directory.
func (u *runner) downloadFile(ctx context.Context, fileName string) error {
	response, err := u.getFileBodyFromServer(ctx, fileName)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	outputFileName := filepath.Clean(filepath.Join(u.temporaryDirectory, fileName))

	outputFile, err := os.Create(outputFileName)
	if err != nil {
		return err
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = outputFile.Close()

		return err
	}

	if err = outputFile.Close(); err != nil {
		return err
	}

	u.downloadedFiles[fileName] = outputFileName
	logger.InfoKV(ctx, "Downloaded file", "path", outputFileName)

	return nil
}

// updateFiles applies downloaded files using go-update with checksum validation.
func (u *runner) updateFiles(ctx context.Context) error {
	for fileName, downloadedFileName := range u.downloadedFiles {
		logger.InfoKV(ctx, "Updating file", "file", fileName)

		data, err := os.ReadFile(filepath.Clean(downloadedFileName))
		if err != nil {
			return err
		}

		checksum, err := u.getServerChecksum(fileName)
		if err != nil {
			return err
		}

		if _, err = os.Stat(fileName); os.IsNotExist(err) {
			created, createErr := os.Create(fileName)
			if createErr != nil {
				return createErr
			}

			_ = created.Close()
		}

		options := goupdate.Options{
			TargetPath: fileName,
			TargetMode: DefaultFileMode,
			Checksum:   checksum,
			Hash:       DefaultChecksumFunction,
		}

		if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
			return err
		}

		oldFileName := fileName + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	return nil
}

// startRequiredExecutables launches the manifest executable unless it is already running.
func (u *runner) startRequiredExecutables(ctx context.Context) error {
	if u.description == nil {
		return errEmptyDescription
	}

	executable := u.description.Executable
	if executable == "" {
		return errNoExecutable
	}

	running, err := common.FindOtherProcesses(executable)
	if err != nil {
		return err
	}

	if len(running) > 0 {
		logger.InfoKV(ctx, "Executable is already running", "executable", executable, "pids", running)
		return nil
	}

	logger.InfoKV(ctx, "Starting executable", "executable", executable)

	// Detach from ctx: the daemon outlives the updater.
	target := filepath.Join(".", executable)

	switch runtime.GOOS {
	case "linux", "darwin":
		return exec.CommandContext(context.WithoutCancel(ctx), target).Start()
	case "windows":
		return exec.CommandContext(context.WithoutCancel(ctx), "cmd.exe", "/C", "start", executable).Start()
	default:
		return fmt.Errorf("%s OS is not supported: %w", runtime.GOOS, errUnsupportedOS)
	}
}

// cleanup removes temporary artifacts and the running marker.
func (u *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	if u.temporaryDirectory != "" {
		_ = os.RemoveAll(u.temporaryDirectory)
	}

	logger.Info(ctx, "The updater has been stopped")
}

// isLocalFilename reports whether name is a plain file in the working directory.
func isLocalFilename(name string) bool {
	return name != "" && filepath.IsLocal(name) && filepath.Base(name) == name
}
