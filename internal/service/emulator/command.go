package emulator

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"

	"github.com/oshokin/shooter-remote/internal/config"
	"github.com/oshokin/shooter-remote/internal/logger"
	repository "github.com/oshokin/shooter-remote/internal/repository/state"
)

// Options controls the shooter-emulator process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// Endpoint overrides the endpoint from config when specified.
	Endpoint string
	// StateFile overrides the state file from config when specified.
	StateFile string
	// Cameras overrides the camera keys from config when not empty.
	Cameras []string
}

// DefaultCameraKey is reported when no camera is configured.
const DefaultCameraKey = "emulated-camera-1"

// handler answers one request frame.
type handler interface {
	Handle(ctx context.Context, payload []byte) []byte
}

// Run listens on the endpoint and answers requests until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "shooter-emulator")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	endpoint := settings.Endpoint
	if opts.Endpoint != "" {
		if err = config.ValidateEndpoint(opts.Endpoint); err != nil {
			return err
		}

		endpoint = opts.Endpoint
	}

	stateFile := settings.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	cameras := resolveCameras(settings.Cameras, opts.Cameras)

	svc, err := newService(ctx, repository.NewFileRepository(stateFile), cameras)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	socket := zmq4.NewRep(ctx)
	if err = socket.Listen(endpoint); err != nil {
		_ = socket.Close()

		return fmt.Errorf("listen on %s: %w", endpoint, err)
	}

	logger.InfoKV(ctx, "Emulator listening", "endpoint", endpoint, "state_file", stateFile, "cameras", cameras)

	return serve(ctx, socket, svc)
}

// resolveCameras picks the override, then the configured keys, then the default.
func resolveCameras(configured, override []string) []string {
	switch {
	case len(override) > 0:
		return override
	case len(configured) > 0:
		return configured
	default:
		return []string{DefaultCameraKey}
	}
}

// serve runs the receive/reply loop and closes socket when ctx is done.
func serve(ctx context.Context, socket zmq4.Socket, h handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Done channel is closed after the socket is closed so that Run returns
	// only once the endpoint is released.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		_ = socket.Close()
		close(done)
	}()

	for {
		msg, err := socket.Recv()
		if err != nil {
			return stopped(ctx, done, fmt.Errorf("receive request: %w", err))
		}

		var payload []byte
		if len(msg.Frames) > 0 {
			payload = msg.Frames[0]
		}

		// A client that gave up on its request is gone, keep serving the others.
		if err = socket.Send(zmq4.NewMsg(h.Handle(ctx, payload))); err != nil {
			if ctx.Err() != nil {
				return stopped(ctx, done, fmt.Errorf("send reply: %w", err))
			}

			logger.WarnKV(ctx, "Unable to send reply", "error", err)
		}
	}
}

// stopped turns socket errors caused by shutdown into a clean return.
func stopped(ctx context.Context, done <-chan struct{}, err error) error {
	if ctx.Err() == nil {
		return err
	}

	<-done
	logger.Info(ctx, "Emulator stopped")

	return nil
}
