// Package artifacts relocates finished build outputs to their permanent
// home and optionally mirrors them to object storage.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/appforge/internal/domain/build"
)

// Mirror uploads an artifact copy to remote storage. Mirroring is best
// effort; the local file remains the source of truth.
type Mirror interface {
	Upload(ctx context.Context, key, path string) error
}

// Store keeps finished artifacts in a flat local directory under
// deterministic names.
type Store struct {
	dir    string
	mirror Mirror
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. mirror may be nil.
func NewStore(dir string, mirror Mirror, logger *slog.Logger) *Store {
	return &Store{dir: dir, mirror: mirror, logger: logger}
}

// Filename is the permanent artifact name for a build. It depends only
// on the app name, build ID, and kind.
func Filename(appName, buildID string, kind build.Kind) string {
	return sanitizeName(appName) + "_" + buildID + "." + string(kind)
}

// Save moves the artifact at srcPath into the store and returns its
// permanent path. A configured mirror receives a copy; mirror failures
// are logged and do not fail the save.
func (s *Store) Save(ctx context.Context, projectID, appName, buildID string, kind build.Kind, srcPath string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	dest := filepath.Join(s.dir, Filename(appName, buildID, kind))
	if err := moveFile(srcPath, dest); err != nil {
		return "", fmt.Errorf("storing artifact: %w", err)
	}

	if s.mirror != nil {
		key := projectID + "/" + filepath.Base(dest)
		if err := s.mirror.Upload(ctx, key, dest); err != nil && s.logger != nil {
			s.logger.Warn("artifact mirror upload failed", "key", key, "error", err)
		}
	}
	return dest, nil
}

// Open returns a reader over a stored artifact.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// moveFile renames when possible and falls back to a copy for
// cross-device moves.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// sanitizeName keeps artifact names filesystem and URL safe.
func sanitizeName(appName string) string {
	var b strings.Builder
	for _, r := range appName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}
