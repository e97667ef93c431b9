package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/logger"
	"github.com/oshokin/morning-alarm/internal/service/common"
	"github.com/oshokin/morning-alarm/internal/service/updater"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is the settings file shipped with the release; existing values are kept.
	ConfigPath string
	// ServerAddress is the gRPC address of the daemon the release talks to.
	ServerAddress string
	// UpdateFolder is the URL where release artifacts will be uploaded.
	UpdateFolder string
	// SkipReachabilityCheck packages without contacting the daemon.
	SkipReachabilityCheck bool
}

// packager prepares update metadata (manifest) for distribution.
type packager struct {
	// cfg holds the settings shipped with the release.
	cfg *config.Config
	// desc contains the update manifest.
	desc *updater.Description
}

// errUpdaterRunning indicates that the updater is replacing files right now.
var errUpdaterRunning = errors.New("the updater is running now")

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "morning-alarm-packager")

	if updater.IsUpdaterRunningNow(ctx) {
		return errUpdaterRunning
	}

	// Start from the existing settings so roster, sound and timezone survive.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.ServerAddress != "" {
		cfg.ServerAddress = opts.ServerAddress
	}

	cfg.ServerUpdateFolder = opts.UpdateFolder

	if err = config.Validate(cfg); err != nil {
		return err
	}

	if !opts.SkipReachabilityCheck {
		if err = ensureServerReachable(ctx, cfg); err != nil {
			return err
		}
	}

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	pkg := &packager{
		cfg:  cfg,
		desc: updater.NewDescription(),
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// Run populates and writes the update description (manifest) to disk.
func (p *packager) Run(ctx context.Context) error {
	logger.Info(ctx, "Preparing update description")

	if err := p.fillDescription(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving update description", "path", updater.VersionFilename)

	if err := p.saveDescription(); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// fillDescription populates file checksums into the manifest.
func (p *packager) fillDescription() error {
	for _, fileName := range updater.FilesWithChecksum() {
		if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", fileName, err)
		}

		checksum, err := updater.GetFileChecksum(fileName)
		if err != nil {
			return err
		}

		p.desc.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
	}

	return nil
}

// saveDescription writes the manifest to the standard VersionFilename.
func (p *packager) saveDescription() error {
	contents, err := yaml.Marshal(p.desc)
	if err != nil {
		return err
	}

	return os.WriteFile(updater.VersionFilename, contents, updater.DefaultFileMode)
}

// printNextSteps logs human-readable guidance for next actions with the created files.
func (p *packager) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(p.desc.Files)+1)
	for fileName := range p.desc.Files {
		files = append(files, fileName)
	}

	files = append(files, updater.VersionFilename)
	slices.Sort(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to the folder ")
	builder.WriteString(p.cfg.ServerUpdateFolder)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))
	builder.WriteString("\n\nOn the morning-alarm machine, copy ")
	builder.WriteString(updater.UpdaterExecutable())
	builder.WriteString(" and ")
	builder.WriteString(config.DefaultConfigFilename)
	builder.WriteString(" next to each other and run the updater at system startup.")

	logger.Info(ctx, builder.String())
}

// ensureServerReachable verifies that the daemon answers before shipping its address.
func ensureServerReachable(ctx context.Context, cfg *config.Config) error {
	client, err := common.Dial(ctx, cfg.ServerAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Best-effort cleanup.
	defer func() {
		_ = client.Close()
	}()

	if _, err = client.CurrentAlarm(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Verified connection to alarm daemon", "server_address", cfg.ServerAddress)

	return nil
}
