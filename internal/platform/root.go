package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootMarkers are the files identifying a vault directory.
var rootMarkers = []string{"jot.toml", "notes.json", "notes.yaml", "jot.db"}

// FindRoot looks upwards from startDir for a vault root indicator and
// returns the absolute path of the first directory holding one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
