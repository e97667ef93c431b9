package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/morning-alarm/internal/domain/routine"
	"github.com/oshokin/morning-alarm/internal/logger"
)

// Config holds the settings shared by the morning-alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alarm daemon.
	ServerAddress string `yaml:"server_addr"`
	// ServerUpdateFolder is the URL where update artifacts are hosted.
	ServerUpdateFolder string `yaml:"update_folder,omitempty"`
	// RosterFile is the path to the JSON file storing the child roster.
	RosterFile string `yaml:"roster_file"`
	// TickInterval is how often the daemon evaluates the roster.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Timezone is the IANA zone alarms are evaluated in; "Local" uses the host zone.
	Timezone string `yaml:"timezone"`
	// AlarmSound is the alarm asset: a file path, an http(s) URL or "builtin:alarm".
	AlarmSound string `yaml:"alarm_sound"`
	// Player is an optional command used to play WAV files instead of the OS default.
	Player string `yaml:"player,omitempty"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of the global logger.
	LogLevel string `yaml:"log_level,omitempty"`
	// LogLevels overrides the level of individual named components, e.g. "audio: warn".
	LogLevels map[string]string `yaml:"log_levels,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "morning-alarm-settings.yaml"

	// DefaultRosterFilename is the default filename for the roster JSON.
	DefaultRosterFilename = "morning-alarm-roster.json"

	// DefaultServerAddress is the address used when no settings file exists yet.
	DefaultServerAddress = "127.0.0.1:50551"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultTickInterval is the default evaluation period.
	DefaultTickInterval = time.Second

	// DefaultTimezone evaluates alarms in the host zone.
	DefaultTimezone = "Local"

	// BuiltinAlarmSound selects the synthesized alarm tone.
	BuiltinAlarmSound = "builtin:alarm"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := &Config{ServerAddress: DefaultServerAddress}

	// Defaults never fail validation.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault is like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes Settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting
// and fills in defaults for optional ones.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.TickInterval <= 0 {
		settings.TickInterval = DefaultTickInterval
	}

	if settings.RosterFile == "" {
		settings.RosterFile = DefaultRosterFilename
	}

	if settings.AlarmSound == "" {
		settings.AlarmSound = BuiltinAlarmSound
	}

	if settings.Timezone == "" {
		settings.Timezone = DefaultTimezone
	}

	if _, err := routine.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if err := validateLogLevel(settings.LogLevel); err != nil {
		return err
	}

	for name, level := range settings.LogLevels {
		if err := validateLogLevel(level); err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
	}

	if settings.ServerUpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.ServerUpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}

// Location returns the configured evaluation timezone.
func (c *Config) Location() *time.Location {
	loc, err := routine.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}

// validateLogLevel rejects levels ParseLogLevel does not recognize.
func validateLogLevel(level string) error {
	if _, ok := logger.ParseLogLevel(level); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, strings.TrimSpace(level))
	}

	return nil
}
