package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/shooter-remote/internal/config"
	"github.com/oshokin/shooter-remote/internal/service/emulator"
)

// reservePort returns a tcp:// endpoint on a free local port.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return "tcp://" + addr
}

// writeConfig saves settings pointing at endpoint and returns the file path.
func writeConfig(t *testing.T, endpoint, downloadDir, stateFile string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(path, &config.Config{
		Endpoint:    endpoint,
		Timeout:     5 * time.Second,
		DownloadDir: downloadDir,
		StateFile:   stateFile,
		LogLevel:    "warn",
	}))

	return path
}

// startEmulator runs the emulator in the background.
// Returns a stop function that waits for it to release the endpoint.
func startEmulator(t *testing.T, cfgPath string, cameras ...string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- emulator.Run(ctx, &emulator.Options{
			ConfigPath: cfgPath,
			Cameras:    cameras,
		})
	}()

	// Wait briefly for the emulator to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// startSilentPeer listens on endpoint and accepts requests without ever replying,
// like a camera-control application that hangs. Returns a channel closed on the first request.
func startSilentPeer(t *testing.T, endpoint string) <-chan struct{} {
	t.Helper()

	rep := zmq4.NewRep(context.Background())
	require.NoError(t, rep.Listen(endpoint))

	t.Cleanup(func() {
		_ = rep.Close()
	})

	received := make(chan struct{})

	go func() {
		if _, err := rep.Recv(); err == nil {
			close(received)
		}
	}()

	return received
}
