package process

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// IsRunning reports whether a process with the given executable name exists.
// The comparison ignores case and a trailing ".exe".
func IsRunning(name string) (bool, error) {
	want := normalize(name)
	if want == "" {
		return false, nil
	}

	processList, err := ps.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if normalize(process.Executable()) == want {
			return true, nil
		}
	}

	return false, nil
}

// normalize strips directories, the Windows extension and case.
func normalize(name string) string {
	name = strings.ToLower(filepath.Base(strings.TrimSpace(name)))
	if name == "." {
		return ""
	}

	return strings.TrimSuffix(name, ".exe")
}
