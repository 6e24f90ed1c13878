package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	api "github.com/oshokin/shooter-remote/internal/api/shooter"
	"github.com/oshokin/shooter-remote/internal/config"
	"github.com/oshokin/shooter-remote/internal/logger"
	"github.com/oshokin/shooter-remote/internal/process"
	"github.com/oshokin/shooter-remote/internal/transport/zmq"
)

// Options configures one shooter-remote run.
type Options struct {
	// ConfigPath to YAML settings file, defaults to the standard filename if empty.
	ConfigPath string
	// Endpoint overrides the endpoint from config when specified.
	Endpoint string
	// LogLevel overrides the level from config when specified.
	LogLevel string

	// Start begins a recording.
	Start bool
	// Stop ends a recording.
	Stop bool
	// Download fetches the recorded files after a stop.
	Download bool
	// Duration stops a started recording automatically after this long.
	Duration time.Duration
	// Loop repeats the start cycle until interrupted.
	Loop bool

	// Output receives the status lines, os.Stdout when nil.
	Output io.Writer
}

// Plan returns the flag-driven part of the options.
func (o *Options) Plan() Plan {
	return Plan{
		Start:    o.Start,
		Stop:     o.Stop,
		Download: o.Download,
		Duration: o.Duration,
		Loop:     o.Loop,
	}
}

// Run connects to the camera-control application and executes the plan.
// Interruption through ctx ends the run cleanly, even while a request is
// waiting for its reply; transport failures are returned.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "shooter-remote")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Apply the log level, flag first.
	if err = applyLogLevel(cfg.LogLevel, opts.LogLevel); err != nil {
		return err
	}

	// Override endpoint if provided in options.
	endpoint := cfg.Endpoint
	if opts.Endpoint != "" {
		if err = config.ValidateEndpoint(opts.Endpoint); err != nil {
			return err
		}

		endpoint = opts.Endpoint
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	// Check that the camera control application is up.
	warnIfNotRunning(ctx, cfg.ProcessName)

	// Connect to the camera control application.
	conn, err := zmq.Dial(ctx, endpoint, zmq.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = conn.Close()
	}()

	logger.InfoKV(ctx, "Connected to camera control", "endpoint", endpoint, "download_dir", cfg.DownloadDir)

	// Run the requested plan against the first camera.
	return newSession(api.NewClient(conn), opts.Plan(), output, cfg.DownloadDir).run(ctx)
}

// applyLogLevel sets the global level, the override winning over the configured one.
func applyLogLevel(configured, override string) error {
	raw := configured
	if override != "" {
		raw = override
	}

	level, ok := logger.ParseLogLevel(raw)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, raw)
	}

	logger.SetLevel(level)

	return nil
}

// warnIfNotRunning logs when the camera-control application process is missing.
// A REQ socket connected to nobody would otherwise hang without explanation.
func warnIfNotRunning(ctx context.Context, processName string) {
	if processName == "" {
		return
	}

	running, err := process.IsRunning(processName)
	if err != nil {
		logger.WarnKV(ctx, "Unable to check camera control process", "process", processName, "error", err)
		return
	}

	if !running {
		logger.WarnKV(ctx, "Camera control application does not seem to be running", "process", processName)
	}
}
