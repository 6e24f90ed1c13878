package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/shooter-remote/internal/domain/shooter"
)

var errTestTransport = errors.New("test transport failure")

// fakeController records every call and answers from its configuration.
type fakeController struct {
	// info is the GetCamera reply.
	info *domain.Response
	// startFails, stopFails and downloadFails reject the matching command.
	startFails    bool
	stopFails     bool
	downloadFails bool
	// stopErr is returned as a transport error from StopRecording.
	stopErr error
	// afterCall runs after every recorded call with the call count.
	afterCall func(n int)
	// blockOn names a call that never gets a reply: it waits for ctx instead.
	blockOn string

	// calls lists command names in order.
	calls []string
	// keys lists the camera key of every EnableVideo and Download call.
	keys []string
	// downloadPaths lists the path of every Download call.
	downloadPaths []string
	// dirExisted reports whether the path existed when Download was called.
	dirExisted []bool
}

func (f *fakeController) record(name string) {
	f.calls = append(f.calls, name)

	if f.afterCall != nil {
		f.afterCall(len(f.calls))
	}
}

// wait blocks like an unanswered request when name is the blocked call.
func (f *fakeController) wait(ctx context.Context, name string) error {
	if f.blockOn != name {
		return nil
	}

	<-ctx.Done()

	return fmt.Errorf("%s: %w", name, ctx.Err())
}

func reply(ok bool) *domain.Response {
	if ok {
		return &domain.Response{Result: true}
	}

	return &domain.Response{Error: "rejected"}
}

func (f *fakeController) GetCameraInfo(ctx context.Context) (*domain.Response, error) {
	f.record("GetCamera")

	if err := f.wait(ctx, "GetCamera"); err != nil {
		return nil, err
	}

	return f.info, nil
}

func (f *fakeController) StartRecording(ctx context.Context, key string) (*domain.Response, error) {
	f.keys = append(f.keys, key)
	f.record("Start")

	if err := f.wait(ctx, "Start"); err != nil {
		return nil, err
	}

	return reply(!f.startFails), nil
}

func (f *fakeController) StopRecording(ctx context.Context, key string) (*domain.Response, error) {
	f.keys = append(f.keys, key)
	f.record("Stop")

	if err := f.wait(ctx, "Stop"); err != nil {
		return nil, err
	}

	if f.stopErr != nil {
		return nil, f.stopErr
	}

	return reply(!f.stopFails), nil
}

func (f *fakeController) DownloadVideo(ctx context.Context, key, path string) (*domain.Response, error) {
	info, err := os.Stat(path)

	f.keys = append(f.keys, key)
	f.downloadPaths = append(f.downloadPaths, path)
	f.dirExisted = append(f.dirExisted, err == nil && info.IsDir())
	f.record("Download")

	if err = f.wait(ctx, "Download"); err != nil {
		return nil, err
	}

	return reply(!f.downloadFails), nil
}

func twoCameras() *domain.Response {
	return &domain.Response{
		Result:     true,
		CameraInfo: []domain.CameraInfo{{CameraKey: "cam-1"}, {CameraKey: "cam-2"}},
	}
}

// noSleep records requested durations without waiting.
type noSleep struct {
	slept []time.Duration
}

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.slept = append(n.slept, d)

	return nil
}

// newTestSession builds a session writing into a buffer with an instant sleep.
func newTestSession(t *testing.T, c *fakeController, plan Plan) (*session, *bytes.Buffer, *noSleep) {
	t.Helper()

	var out bytes.Buffer

	s := newSession(c, plan, &out, filepath.Join(t.TempDir(), "videos", "shooter"))
	ns := new(noSleep)
	s.sleep = ns.sleep

	return s, &out, ns
}

func lines(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

// TestRun_CameraInfoFailure prints msg_error and sends nothing else.
func TestRun_CameraInfoFailure(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: &domain.Response{Error: "Smart Shooter is busy"}}
	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera"}, c.calls)
	require.Equal(t, "Erro ao obter informações da câmera: Smart Shooter is busy\n", out.String())
	require.Equal(t, domain.PhaseDone, s.machine.Current())
}

// TestRun_NoCamera reports an empty camera list and stops.
func TestRun_NoCamera(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: &domain.Response{Result: true}}
	s, out, _ := newTestSession(t, c, Plan{Stop: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera"}, c.calls)
	require.Equal(t, MessageNoCamera+"\n", out.String())
}

// TestRun_TimedStartSequence checks the order of requests and the sleep in between.
func TestRun_TimedStartSequence(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, out, ns := newTestSession(t, c, Plan{Start: true, Duration: 5 * time.Second})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Start", "Stop"}, c.calls)
	require.Equal(t, []string{"cam-1", "cam-1"}, c.keys)
	require.Equal(t, []time.Duration{5 * time.Second}, ns.slept)
	require.Equal(t, []string{TokenRecordingStarted, TokenRecordingStopped}, lines(out))
	require.Equal(t, []domain.Phase{
		domain.PhaseIdle, domain.PhaseRecording, domain.PhaseStopped, domain.PhaseDone,
	}, s.machine.History())
}

// TestRun_TimedStartWaitsForReal uses the real sleep with a short duration.
func TestRun_TimedStartWaitsForReal(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, _, _ := newTestSession(t, c, Plan{Start: true, Duration: 30 * time.Millisecond})
	s.sleep = sleepContext

	var stopAt time.Time

	began := time.Now()
	c.afterCall = func(n int) {
		if n == 3 {
			stopAt = time.Now()
		}
	}

	require.NoError(t, s.run(context.Background()))
	require.GreaterOrEqual(t, stopAt.Sub(began), 30*time.Millisecond)
}

// TestRun_TimedStartWithDownload downloads into the created directory.
func TestRun_TimedStartWithDownload(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Start", "Stop", "Download"}, c.calls)
	require.Equal(t, []string{
		TokenRecordingStarted, TokenRecordingStopped, TokenDownloadStarted, TokenDownloadDone,
	}, lines(out))

	want, err := filepath.Abs(s.downloadDir)
	require.NoError(t, err)
	require.Equal(t, []string{want}, c.downloadPaths)
	require.Equal(t, []bool{true}, c.dirExisted)
}

// TestRun_StartDownloadWithoutTime never stops nor downloads on its own.
func TestRun_StartDownloadWithoutTime(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, out, ns := newTestSession(t, c, Plan{Start: true, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Start"}, c.calls)
	require.Empty(t, ns.slept)
	require.Equal(t, TokenRecordingStarted+"\n", out.String())
	require.Equal(t, domain.PhaseDone, s.machine.Current())
}

// TestRun_StartRejectedWithoutLoopEnds ends after a failed start instead of spinning.
func TestRun_StartRejectedWithoutLoopEnds(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras(), startFails: true}
	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Start"}, c.calls)
	require.Empty(t, out.String())
}

// TestRun_AutoStopRejected prints the automatic stop failure and skips the download.
func TestRun_AutoStopRejected(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras(), stopFails: true}
	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Start", "Stop"}, c.calls)
	require.Equal(t, []string{TokenRecordingStarted, MessageAutoStopFailed}, lines(out))
}

// TestRun_TimedDownloadRejected prints the download failure.
func TestRun_TimedDownloadRejected(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras(), downloadFails: true}
	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{
		TokenRecordingStarted, TokenRecordingStopped, TokenDownloadStarted, MessageDownloadFailed,
	}, lines(out))
	require.Equal(t, domain.PhaseDone, s.machine.Current())
}

// TestRun_StopWithDownload stops, downloads and reports the path.
func TestRun_StopWithDownload(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, out, _ := newTestSession(t, c, Plan{Stop: true, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Stop", "Download"}, c.calls)

	path, err := filepath.Abs(s.downloadDir)
	require.NoError(t, err)
	require.Equal(t, []string{MessageStopped, "Vídeo baixado com sucesso para " + path}, lines(out))
	require.Equal(t, []bool{true}, c.dirExisted)
}

// TestRun_StopRejected prints the failure and never downloads.
func TestRun_StopRejected(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras(), stopFails: true}
	s, out, _ := newTestSession(t, c, Plan{Stop: true, Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Stop"}, c.calls)
	require.Equal(t, MessageStopFailed+"\n", out.String())
}

// TestRun_StopTransportError propagates transport failures.
func TestRun_StopTransportError(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras(), stopErr: errTestTransport}
	s, _, _ := newTestSession(t, c, Plan{Stop: true})

	require.ErrorIs(t, s.run(context.Background()), errTestTransport)
}

// TestRun_NoFlags selects the camera and ends.
func TestRun_NoFlags(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, out, _ := newTestSession(t, c, Plan{Download: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera"}, c.calls)
	require.Empty(t, out.String())
}

// TestRun_LoopUntilInterrupted cycles start/stop until the context is canceled.
func TestRun_LoopUntilInterrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &fakeController{info: twoCameras()}
	c.afterCall = func(n int) {
		// GetCamera plus three start/stop cycles.
		if n == 7 {
			cancel()
		}
	}

	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Loop: true})

	require.NoError(t, s.run(ctx))
	require.Equal(t, []string{"GetCamera", "Start", "Stop", "Start", "Stop", "Start", "Stop"}, c.calls)
	require.Equal(t, []string{
		TokenRecordingStarted, TokenRecordingStopped,
		TokenRecordingStarted, TokenRecordingStopped,
		TokenRecordingStarted, TokenRecordingStopped,
		MessageInterrupted,
	}, lines(out))
	require.Equal(t, domain.PhaseInterrupted, s.machine.Current())
}

// TestRun_InterruptDuringTimedWait abandons the cycle while waiting to stop.
func TestRun_InterruptDuringTimedWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &fakeController{info: twoCameras()}
	c.afterCall = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Hour, Loop: true})
	s.sleep = sleepContext

	require.NoError(t, s.run(ctx))
	require.Equal(t, []string{"GetCamera", "Start"}, c.calls)
	require.Equal(t, []string{TokenRecordingStarted, MessageInterrupted}, lines(out))
	require.Equal(t, domain.PhaseInterrupted, s.machine.Current())
}

// TestRun_LoopWithStopEndsAfterOneIteration runs the start cycle then the stop branch once.
func TestRun_LoopWithStopEndsAfterOneIteration(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras()}
	s, out, _ := newTestSession(t, c, Plan{Start: true, Stop: true, Loop: true})

	require.NoError(t, s.run(context.Background()))
	require.Equal(t, []string{"GetCamera", "Start", "Stop"}, c.calls)
	require.Equal(t, []string{TokenRecordingStarted, MessageStopped}, lines(out))
}

// TestRun_LoopWithDownloadReusesDirectory downloads into the same existing directory on every cycle.
func TestRun_LoopWithDownloadReusesDirectory(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &fakeController{info: twoCameras()}
	c.afterCall = func(n int) {
		// GetCamera plus two start/stop/download cycles.
		if n == 7 {
			cancel()
		}
	}

	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Download: true, Loop: true})

	require.NoError(t, s.run(ctx))
	require.Equal(t, []string{
		"GetCamera", "Start", "Stop", "Download", "Start", "Stop", "Download",
	}, c.calls)
	require.Equal(t, []string{
		TokenRecordingStarted, TokenRecordingStopped, TokenDownloadStarted, TokenDownloadDone,
		TokenRecordingStarted, TokenRecordingStopped, TokenDownloadStarted, TokenDownloadDone,
		MessageInterrupted,
	}, lines(out))

	want, err := filepath.Abs(s.downloadDir)
	require.NoError(t, err)
	require.Equal(t, []string{want, want}, c.downloadPaths)
	require.Equal(t, []bool{true, true}, c.dirExisted)
}

// TestRun_InterruptDuringCameraQuery stops waiting for a GetCamera reply that never comes.
func TestRun_InterruptDuringCameraQuery(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &fakeController{info: twoCameras(), blockOn: "GetCamera"}
	c.afterCall = func(int) {
		cancel()
	}

	s, out, _ := newTestSession(t, c, Plan{Start: true})

	require.NoError(t, s.run(ctx))
	require.Equal(t, []string{"GetCamera"}, c.calls)
	require.Equal(t, []string{MessageInterrupted}, lines(out))
	require.Equal(t, domain.PhaseInterrupted, s.machine.Current())
}

// TestRun_InterruptDuringStopRequest abandons an unanswered automatic stop.
func TestRun_InterruptDuringStopRequest(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &fakeController{info: twoCameras(), blockOn: "Stop"}
	c.afterCall = func(n int) {
		if n == 3 {
			cancel()
		}
	}

	s, out, _ := newTestSession(t, c, Plan{Start: true, Duration: time.Second, Download: true, Loop: true})

	require.NoError(t, s.run(ctx))
	require.Equal(t, []string{"GetCamera", "Start", "Stop"}, c.calls)
	require.Equal(t, []string{TokenRecordingStarted, MessageInterrupted}, lines(out))
	require.Equal(t, domain.PhaseInterrupted, s.machine.Current())
}

// TestRun_InterruptDuringDownload leaves the downloading phase for the interrupted one.
func TestRun_InterruptDuringDownload(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &fakeController{info: twoCameras(), blockOn: "Download"}
	c.afterCall = func(n int) {
		if n == 3 {
			cancel()
		}
	}

	s, out, _ := newTestSession(t, c, Plan{Stop: true, Download: true})

	require.NoError(t, s.run(ctx))
	require.Equal(t, []string{"GetCamera", "Stop", "Download"}, c.calls)
	require.Equal(t, []string{MessageStopped, MessageInterrupted}, lines(out))
	require.Equal(t, []domain.Phase{
		domain.PhaseIdle, domain.PhaseStopped, domain.PhaseDownloading, domain.PhaseInterrupted,
	}, s.machine.History())
}

// TestRun_TransportErrorIsNotAnInterrupt keeps failures of a live run as errors.
func TestRun_TransportErrorIsNotAnInterrupt(t *testing.T) {
	t.Parallel()

	c := &fakeController{info: twoCameras(), stopErr: context.Canceled}
	s, out, _ := newTestSession(t, c, Plan{Stop: true})

	require.ErrorIs(t, s.run(context.Background()), context.Canceled)
	require.Empty(t, out.String())
}

// TestApplyLogLevel lets the override win and rejects unknown levels.
func TestApplyLogLevel(t *testing.T) {
	require.NoError(t, applyLogLevel("info", ""))
	require.ErrorIs(t, applyLogLevel("info", "chatty"), errUnknownLogLevel)
	require.ErrorIs(t, applyLogLevel("loud", ""), errUnknownLogLevel)
}
