package builder

import (
	"fmt"
	"os"
	"path/filepath"
)

// WorkspacePath returns the scratch directory for one build attempt.
// The mapping from build ID to path is fixed so concurrent attempts can
// never collide and diagnostics can find a failed build's workspace.
func WorkspacePath(root, buildID string) string {
	return filepath.Join(root, "build-"+buildID)
}

// CreateWorkspace creates the scratch directory for a build attempt.
func CreateWorkspace(root, buildID string) (string, error) {
	dir := WorkspacePath(root, buildID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating workspace %s: %w", dir, err)
	}
	return dir, nil
}

// RemoveWorkspace deletes a build's scratch directory.
func RemoveWorkspace(root, buildID string) error {
	return os.RemoveAll(WorkspacePath(root, buildID))
}
