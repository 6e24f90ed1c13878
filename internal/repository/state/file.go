package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/oshokin/shooter-remote/internal/config"
	domain "github.com/oshokin/shooter-remote/internal/domain/shooter"
)

// Repository defines persistence operations for camera states.
type Repository interface {
	Load(ctx context.Context) ([]*domain.CameraState, error)
	Save(ctx context.Context, cameras []*domain.CameraState) error
}

// FileRepository persists camera states to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// document is the on-disk layout.
type document struct {
	SavedAt time.Time             `json:"saved_at"`
	Cameras []*domain.CameraState `json:"cameras"`
}

//nolint:gochecknoglobals // Stateless codec.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the camera states from disk.
func (r *FileRepository) Load(_ context.Context) ([]*domain.CameraState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err = codec.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return doc.Cameras, nil
}

// Save writes the camera states to disk, replacing the previous file atomically.
func (r *FileRepository) Save(_ context.Context, cameras []*domain.CameraState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := codec.MarshalIndent(document{
		SavedAt: time.Now().UTC(),
		Cameras: cameras,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
