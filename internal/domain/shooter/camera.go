package shooter

import "time"

// CameraState is what the emulator remembers about one camera.
type CameraState struct {
	// Key identifies the camera on the wire.
	Key string `json:"key"`
	// Recording is true between an accepted start and stop.
	Recording bool `json:"recording"`
	// PendingClips counts recordings not yet downloaded.
	PendingClips int `json:"pending_clips"`
	// Downloaded counts clips written by earlier downloads.
	Downloaded int `json:"downloaded"`
	// UpdatedAt is when the camera last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the camera state.
func (c *CameraState) Clone() *CameraState {
	if c == nil {
		return nil
	}

	cloned := *c

	return &cloned
}
