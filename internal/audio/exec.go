package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/morning-alarm/internal/logger"
)

const (
	// filePlaceholder in a player command is replaced by the sound file path;
	// without it the path is appended.
	filePlaceholder = "{file}"
	// retryDelay spaces out restarts of a looping player that keeps failing.
	retryDelay = time.Second
	// assetFilePermissions for materialized sound files.
	assetFilePermissions = 0o600
)

var (
	// ErrNoPlayer indicates that no usable sound player was found.
	ErrNoPlayer = errors.New("no sound player available")
	// ErrNotInitialized is returned by Play before a successful Init.
	ErrNotInitialized = errors.New("device is not initialized")
)

// ExecDevice plays sounds by running an external player per playback.
type ExecDevice struct {
	// command is the configured player, empty to detect one.
	command string
	// dir holds the materialized sound files.
	dir string

	// mu guards argv and files.
	mu sync.Mutex
	// argv is the resolved player command line.
	argv []string
	// files maps asset sources to written files.
	files map[string]string
}

// NewExecDevice creates a device using command, e.g. "paplay" or
// "mpv --really-quiet {file}". An empty command picks the platform player.
// Sound files are written under dir, or the OS temp dir when empty.
func NewExecDevice(command, dir string) *ExecDevice {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "morning-alarm-sounds")
	}

	return &ExecDevice{
		command: command,
		dir:     dir,
		files:   make(map[string]string),
	}
}

// platformPlayers lists player command lines to try for the current OS, in order.
func platformPlayers() [][]string {
	osName := strings.ToLower(runtime.GOOS)

	switch {
	case strings.Contains(osName, "darwin"):
		return [][]string{{"afplay"}}
	case strings.Contains(osName, "windows"):
		return [][]string{{
			"powershell.exe", "-NoProfile", "-NonInteractive", "-Command",
			"(New-Object Media.SoundPlayer '" + filePlaceholder + "').PlaySync()",
		}}
	default:
		return [][]string{{"paplay"}, {"aplay", "-q"}, {"pw-play"}}
	}
}

// Init resolves the player command and prepares the sound directory.
func (d *ExecDevice) Init(_ context.Context) error {
	candidates := platformPlayers()
	if d.command != "" {
		candidates = [][]string{strings.Fields(d.command)}
	}

	var argv []string

	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}

		if _, err := exec.LookPath(candidate[0]); err == nil {
			argv = candidate

			break
		}
	}

	if argv == nil {
		return fmt.Errorf("%s: %w", runtime.GOOS, ErrNoPlayer)
	}

	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return fmt.Errorf("create sound directory: %w", err)
	}

	d.mu.Lock()
	d.argv = argv
	d.mu.Unlock()

	return nil
}

// Play materializes asset and starts the player in the background.
// Playback outlives ctx; only the returned handle stops it.
//
//nolint:ireturn // Device implementations return their own handle type.
func (d *ExecDevice) Play(ctx context.Context, asset Asset, loop bool) (Handle, error) {
	d.mu.Lock()
	argv := d.argv
	d.mu.Unlock()

	if argv == nil {
		return nil, ErrNotInitialized
	}

	file, err := d.materialize(asset)
	if err != nil {
		return nil, err
	}

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	h := &execHandle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go d.run(playCtx, h, commandLine(argv, file), loop)

	return h, nil
}

// run plays once, or until canceled when loop is set.
func (d *ExecDevice) run(ctx context.Context, h *execHandle, argv []string, loop bool) {
	defer close(h.done)

	for {
		//nolint:gosec // The player command comes from local settings.
		err := exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			logger.WarnKV(ctx, "Sound player failed", "player", argv[0], "error", err)
		}

		if !loop {
			return
		}

		if err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// materialize writes asset to a content-addressed file once.
func (d *ExecDevice) materialize(asset Asset) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if file, ok := d.files[asset.Source]; ok {
		return file, nil
	}

	sum := sha256.Sum256(asset.Data)
	file := filepath.Join(d.dir, "sound-"+hex.EncodeToString(sum[:8])+asset.Ext)

	if err := os.WriteFile(file, asset.Data, assetFilePermissions); err != nil {
		return "", fmt.Errorf("write sound file: %w", err)
	}

	d.files[asset.Source] = file

	return file, nil
}

// commandLine substitutes the file into the player argv.
func commandLine(argv []string, file string) []string {
	out := make([]string, 0, len(argv)+1)
	substituted := false

	for _, arg := range argv {
		if strings.Contains(arg, filePlaceholder) {
			arg = strings.ReplaceAll(arg, filePlaceholder, file)
			substituted = true
		}

		out = append(out, arg)
	}

	if !substituted {
		out = append(out, file)
	}

	return out
}

// execHandle controls one background player loop.
type execHandle struct {
	// cancel kills the running player.
	cancel context.CancelFunc
	// done is closed when the loop exits.
	done chan struct{}
}

// Stop kills the player and waits for the loop to exit.
func (h *execHandle) Stop() error {
	h.cancel()
	<-h.done

	return nil
}

// Done is closed when playback ends.
func (h *execHandle) Done() <-chan struct{} {
	return h.done
}
