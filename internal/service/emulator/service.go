package emulator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/shooter-remote/internal/config"
	domain "github.com/oshokin/shooter-remote/internal/domain/shooter"
	"github.com/oshokin/shooter-remote/internal/logger"
	repo "github.com/oshokin/shooter-remote/internal/repository/state"
)

var (
	// ErrCameraNotFound is returned for unknown camera keys.
	ErrCameraNotFound = errors.New("camera not found")
	// ErrAlreadyRecording is returned when starting a recording camera.
	ErrAlreadyRecording = errors.New("camera is already recording")
	// ErrNotRecording is returned when stopping an idle camera.
	ErrNotRecording = errors.New("camera is not recording")
	// ErrDownloadPath is returned when the download directory is unusable.
	ErrDownloadPath = errors.New("download path is not a directory")
)

// clipPlaceholder is the content of every emulated clip file.
const clipPlaceholder = "shooter-emulator placeholder clip\n"

// service holds the emulated cameras and persists every change.
type service struct {
	// repo handles persistent storage of camera states.
	repo repo.Repository
	// cameras keeps the configured order, which GetCamera reports.
	cameras []*domain.CameraState
	// mu protects cameras.
	mu sync.Mutex
	// now is the clock, replaceable in tests.
	now func() time.Time
}

// newService creates the configured cameras and restores their saved state.
func newService(ctx context.Context, repository repo.Repository, keys []string) (*service, error) {
	s := &service{
		repo: repository,
		now:  time.Now,
	}

	for _, key := range keys {
		s.cameras = append(s.cameras, &domain.CameraState{Key: key})
	}

	if repository == nil {
		return s, nil
	}

	saved, err := repository.Load(ctx)
	switch {
	case err == nil:
		s.restore(saved)
	case errors.Is(err, repo.ErrNotFound):
		// Fresh cameras.
	default:
		return nil, fmt.Errorf("load state: %w", err)
	}

	return s, nil
}

// restore copies saved states onto configured cameras with the same key.
func (s *service) restore(saved []*domain.CameraState) {
	byKey := make(map[string]*domain.CameraState, len(saved))
	for _, camera := range saved {
		if camera != nil {
			byKey[camera.Key] = camera
		}
	}

	for i, camera := range s.cameras {
		if prev, found := byKey[camera.Key]; found {
			s.cameras[i] = prev.Clone()
		}
	}
}

// Cameras lists the connected cameras in configured order.
func (s *service) Cameras() []domain.CameraInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]domain.CameraInfo, 0, len(s.cameras))
	for _, camera := range s.cameras {
		infos = append(infos, domain.CameraInfo{CameraKey: camera.Key})
	}

	return infos
}

// SetRecording starts or stops recording. A stop leaves one clip to download.
// The camera changes only once the new state is saved.
func (s *service) SetRecording(ctx context.Context, key string, enable bool) (*domain.CameraState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrCameraNotFound, key)
	}

	camera := s.cameras[i]

	switch {
	case enable && camera.Recording:
		return nil, ErrAlreadyRecording
	case !enable && !camera.Recording:
		return nil, ErrNotRecording
	}

	next := camera.Clone()

	next.Recording = enable
	if !enable {
		next.PendingClips++
	}

	next.UpdatedAt = s.now()

	if err := s.commit(ctx, i, next); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Recording state changed", "camera_key", key, "recording", enable, "pending_clips", next.PendingClips)

	return next.Clone(), nil
}

// Download writes one placeholder file per pending clip into dir and returns their paths.
// Counters move only for written clips, and only once the new state is saved.
func (s *service) Download(ctx context.Context, key, dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrCameraNotFound, key)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrDownloadPath, dir)
	}

	next := s.cameras[i].Clone()
	written := make([]string, 0, next.PendingClips)

	for next.PendingClips > 0 {
		name := fmt.Sprintf("%s-clip-%04d.mp4", fileSafe(next.Key), next.Downloaded+1)
		path := filepath.Join(dir, name)

		if err = os.WriteFile(path, []byte(clipPlaceholder), config.DefaultFilePermissions); err != nil {
			break
		}

		written = append(written, path)
		next.PendingClips--
		next.Downloaded++
	}

	next.UpdatedAt = s.now()

	if commitErr := s.commit(ctx, i, next); commitErr != nil {
		return written, commitErr
	}

	if err != nil {
		return written, fmt.Errorf("write clip: %w", err)
	}

	logger.InfoKV(ctx, "Clips downloaded", "camera_key", key, "dir", dir, "count", len(written))

	return written, nil
}

// find returns the index of the camera with key, or -1. Callers hold mu.
func (s *service) find(key string) int {
	for i, camera := range s.cameras {
		if camera.Key == key {
			return i
		}
	}

	return -1
}

// commit saves a snapshot with next in place of camera i and swaps next in
// only when the save succeeds. Callers hold mu.
func (s *service) commit(ctx context.Context, i int, next *domain.CameraState) error {
	if s.repo != nil {
		snapshot := make([]*domain.CameraState, 0, len(s.cameras))
		for j, camera := range s.cameras {
			if j == i {
				camera = next
			}

			snapshot = append(snapshot, camera.Clone())
		}

		if err := s.repo.Save(ctx, snapshot); err != nil {
			logger.Errorf(ctx, "Failed to persist camera state: %v", err)

			return fmt.Errorf("persist state: %w", err)
		}
	}

	s.cameras[i] = next

	return nil
}

// fileSafe replaces characters that do not belong in file names.
func fileSafe(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		default:
			return r
		}
	}, key)
}
