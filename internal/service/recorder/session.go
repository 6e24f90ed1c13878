package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/shooter-remote/internal/config"
	domain "github.com/oshokin/shooter-remote/internal/domain/shooter"
	"github.com/oshokin/shooter-remote/internal/logger"
)

// Status lines written to the output. The tokens are read by scripts.
const (
	TokenRecordingStarted = "rec_start"
	TokenRecordingStopped = "rec_stop"
	TokenDownloadStarted  = "down_start"
	TokenDownloadDone     = "down_done"

	MessageCameraInfoFailed = "Erro ao obter informações da câmera: %s"
	MessageNoCamera         = "Nenhuma câmera conectada"
	MessageAutoStopFailed   = "Falha ao interromper a gravação de vídeo automaticamente"
	MessageStopped          = "Gravação de vídeo interrompida com sucesso"
	MessageStopFailed       = "Falha ao interromper a gravação de vídeo"
	MessageDownloaded       = "Vídeo baixado com sucesso para %s"
	MessageDownloadFailed   = "Falha ao baixar o vídeo"
	MessageInterrupted      = "Gravação contínua interrompida pelo usuário."
)

var (
	// errInterrupted marks a step abandoned because the run was interrupted.
	errInterrupted = errors.New("interrupted")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Plan is what the command-line flags ask for.
type Plan struct {
	Start    bool
	Stop     bool
	Download bool
	Duration time.Duration
	Loop     bool
}

// controller is the part of the camera-control client the session drives.
type controller interface {
	GetCameraInfo(ctx context.Context) (*domain.Response, error)
	StartRecording(ctx context.Context, cameraKey string) (*domain.Response, error)
	StopRecording(ctx context.Context, cameraKey string) (*domain.Response, error)
	DownloadVideo(ctx context.Context, cameraKey, path string) (*domain.Response, error)
}

// session runs one plan against one camera, tracking the recording phase.
type session struct {
	api         controller
	plan        Plan
	out         io.Writer
	downloadDir string
	machine     *domain.Machine
	cameraKey   string
	// sleep waits between a timed start and its stop.
	sleep func(ctx context.Context, d time.Duration) error
}

// newSession prepares a session in the idle phase.
func newSession(c controller, plan Plan, out io.Writer, downloadDir string) *session {
	if downloadDir == "" {
		downloadDir = filepath.FromSlash(config.DefaultDownloadDir)
	}

	return &session{
		api:         c,
		plan:        plan,
		out:         out,
		downloadDir: downloadDir,
		machine:     domain.NewMachine(),
		sleep:       sleepContext,
	}
}

// run selects the camera and loops over the plan until it is done or interrupted.
//
//nolint:cyclop // The loop mirrors the flag combinations one to one.
func (s *session) run(ctx context.Context) error {
	// Ask the application which cameras are connected.
	info, err := s.api.GetCameraInfo(ctx)
	if err != nil {
		if interrupted(ctx, err) {
			return s.interrupt(ctx)
		}

		return err
	}

	// A refused query ends the run, nothing else is sent.
	if !info.Succeeded() {
		s.printf(MessageCameraInfoFailed, info.Error)
		return s.finish()
	}

	// Work with the first camera only.
	key, ok := info.FirstCameraKey()
	if !ok {
		s.println(MessageNoCamera)
		return s.finish()
	}

	s.cameraKey = key
	ctx = logger.WithKV(ctx, "camera_key", key)

	logger.InfoKV(ctx, "Camera selected", "cameras", len(info.CameraInfo))

	for {
		// Check for interruption before every iteration.
		if ctx.Err() != nil {
			return s.interrupt(ctx)
		}

		// Start branch, repeated while looping.
		if s.plan.Start {
			err = s.recordCycle(ctx)

			switch {
			case errors.Is(err, errInterrupted), interrupted(ctx, err):
				return s.interrupt(ctx)
			case err != nil:
				return err
			}

			if !s.plan.Loop {
				return s.finish()
			}
		}

		// Stop branch always ends the run.
		if s.plan.Stop {
			err = s.stopAndCollect(ctx)
			if interrupted(ctx, err) {
				return s.interrupt(ctx)
			}

			if err != nil {
				return err
			}

			return s.finish()
		}

		if !s.plan.Start {
			logger.Info(ctx, "Nothing to do, pass --start or --stop")
			return s.finish()
		}
	}
}

// recordCycle starts a recording and, for a timed plan, stops and downloads it.
func (s *session) recordCycle(ctx context.Context) error {
	resp, err := s.api.StartRecording(ctx, s.cameraKey)
	if err != nil {
		return err
	}

	if !resp.Succeeded() {
		logger.WarnKV(ctx, "Start recording rejected", "msg_error", resp.Error)
		return nil
	}

	if err = s.machine.To(domain.PhaseRecording); err != nil {
		return err
	}

	s.println(TokenRecordingStarted)

	if s.plan.Duration <= 0 {
		return nil
	}

	if err = s.sleep(ctx, s.plan.Duration); err != nil {
		return errInterrupted
	}

	resp, err = s.api.StopRecording(ctx, s.cameraKey)
	if err != nil {
		return err
	}

	if !resp.Succeeded() {
		logger.WarnKV(ctx, "Automatic stop rejected", "msg_error", resp.Error)
		s.println(MessageAutoStopFailed)

		return nil
	}

	if err = s.machine.To(domain.PhaseStopped); err != nil {
		return err
	}

	s.println(TokenRecordingStopped)

	if !s.plan.Download {
		return nil
	}

	s.println(TokenDownloadStarted)

	downloaded, path, err := s.download(ctx)
	if err != nil {
		return err
	}

	if downloaded {
		s.println(TokenDownloadDone)
	} else {
		s.println(MessageDownloadFailed)
	}

	logger.DebugKV(ctx, "Download finished", "path", path, "ok", downloaded)

	return nil
}

// stopAndCollect stops the recording and optionally downloads it.
func (s *session) stopAndCollect(ctx context.Context) error {
	resp, err := s.api.StopRecording(ctx, s.cameraKey)
	if err != nil {
		return err
	}

	if !resp.Succeeded() {
		logger.WarnKV(ctx, "Stop recording rejected", "msg_error", resp.Error)
		s.println(MessageStopFailed)

		return nil
	}

	if err = s.machine.To(domain.PhaseStopped); err != nil {
		return err
	}

	s.println(MessageStopped)

	if !s.plan.Download {
		return nil
	}

	downloaded, path, err := s.download(ctx)
	if err != nil {
		return err
	}

	if downloaded {
		s.printf(MessageDownloaded, path)
	} else {
		s.println(MessageDownloadFailed)
	}

	return nil
}

// download creates the download directory and asks for every file of the camera.
// The path is sent absolute because the application resolves relative paths
// against its own working directory.
func (s *session) download(ctx context.Context) (bool, string, error) {
	path, err := filepath.Abs(s.downloadDir)
	if err != nil {
		return false, "", fmt.Errorf("resolve download dir: %w", err)
	}

	if err = os.MkdirAll(path, config.DefaultDirPermissions); err != nil {
		return false, path, fmt.Errorf("create download dir: %w", err)
	}

	if err = s.machine.To(domain.PhaseDownloading); err != nil {
		return false, path, err
	}

	resp, err := s.api.DownloadVideo(ctx, s.cameraKey, path)
	if err != nil {
		return false, path, err
	}

	if err = s.machine.To(domain.PhaseStopped); err != nil {
		return false, path, err
	}

	if !resp.Succeeded() {
		logger.WarnKV(ctx, "Download rejected", "path", path, "msg_error", resp.Error)
	}

	return resp.Succeeded(), path, nil
}

// interrupt reports a user abort and ends the run without error.
func (s *session) interrupt(ctx context.Context) error {
	logger.InfoKV(ctx, "Interrupted", "phase", s.machine.Current().String())
	s.println(MessageInterrupted)

	return s.machine.To(domain.PhaseInterrupted)
}

// finish moves the machine to its final phase.
func (s *session) finish() error {
	return s.machine.To(domain.PhaseDone)
}

func (s *session) println(line string) {
	_, _ = fmt.Fprintln(s.out, line)
}

func (s *session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

// interrupted reports whether err comes from ctx being done, i.e. a request
// abandoned because the user interrupted the run.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
