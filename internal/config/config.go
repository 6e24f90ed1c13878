package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the camera-control client and its emulator.
type Config struct {
	// Endpoint is the ZeroMQ address of the camera-control application.
	Endpoint string `yaml:"endpoint"`
	// Timeout bounds a single request/reply exchange. Zero waits forever.
	Timeout time.Duration `yaml:"timeout"`
	// DownloadDir is where recorded videos are downloaded to.
	DownloadDir string `yaml:"download_dir"`
	// ProcessName is the executable of the camera-control application,
	// used to warn when it is not running. Empty disables the check.
	ProcessName string `yaml:"process_name,omitempty"`
	// LogLevel is the minimum level written to stderr.
	LogLevel string `yaml:"log_level"`
	// StateFile is where the emulator persists its camera state.
	StateFile string `yaml:"state_file"`
	// Cameras lists the camera keys the emulator reports.
	Cameras []string `yaml:"cameras,omitempty"`
}

const (
	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "shooter-remote.yaml"

	// DefaultEndpoint is where Smart Shooter listens for requests.
	DefaultEndpoint = "tcp://127.0.0.1:54544"

	// DefaultDownloadDir is the relative folder receiving downloaded videos.
	DefaultDownloadDir = "videos/shooter"

	// DefaultStateFilename is the default emulator state file.
	DefaultStateFilename = "shooter-emulator-state.json"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the permission for files written by the binaries.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is the permission for created directories.
	DefaultDirPermissions = 0o755

	// endpointScheme is the only transport the camera-control application offers.
	endpointScheme = "tcp"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrInvalidEndpoint is returned when the endpoint is not a tcp://host:port address.
	ErrInvalidEndpoint = errors.New("endpoint must look like tcp://host:port")
)

// Default returns settings that talk to a local Smart Shooter instance.
func Default() *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		DownloadDir: filepath.FromSlash(DefaultDownloadDir),
		LogLevel:    DefaultLogLevel,
		StateFile:   DefaultStateFilename,
	}
}

// Load reads configuration from path and validates it.
// An empty path means the default filename; when that file does not exist
// the defaults are returned. A missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		return Default(), nil
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path.
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

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills unset fields with defaults and checks the endpoint format.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if err := ValidateEndpoint(cfg.Endpoint); err != nil {
		return err
	}

	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}

	if cfg.DownloadDir == "" {
		cfg.DownloadDir = filepath.FromSlash(DefaultDownloadDir)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	return nil
}

// ValidateEndpoint checks that endpoint is a tcp://host:port address.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	if u.Scheme != endpointScheme || u.Host == "" {
		return fmt.Errorf("%w: got %q", ErrInvalidEndpoint, endpoint)
	}

	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	if host == "" || port == "" {
		return fmt.Errorf("%w: got %q", ErrInvalidEndpoint, endpoint)
	}

	return nil
}
