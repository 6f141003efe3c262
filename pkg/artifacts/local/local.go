// Package local stores artifacts as files in a directory on the local disk.
package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir writes artifacts into a single directory. Each artifact is written to a
// temporary file first and renamed into place, so readers either see the
// previous artifact or the complete new one. Dir is safe for concurrent use
// as long as concurrent writes use different names.
type Dir struct {
	path string
	perm fs.FileMode
}

// New returns a Dir rooted at path, creating the directory if needed.
func New(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil { //nolint: gosec
		return nil, fmt.Errorf("could not create artifact directory: %w", err)
	}

	return &Dir{path: path, perm: 0o644}, nil
}

// Path returns the directory the artifacts are written to.
func (d *Dir) Path() string { return d.path }

// FS exposes the directory as a read-only fs.FS, for publishers.
func (d *Dir) FS() fs.FS { return os.DirFS(d.path) }

// WriteArtifact atomically creates or replaces the file called name.
// Names must be plain file names without directory components.
func (d *Dir) WriteArtifact(ctx context.Context, name string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if !fs.ValidPath(name) || filepath.Base(name) != name || name == "." {
		return fmt.Errorf("invalid artifact name %q", name)
	}

	tmp, err := os.CreateTemp(d.path, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	// no-op once the rename succeeded
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := tmp.Chmod(d.perm); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not chmod %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(d.path, name)); err != nil {
		return fmt.Errorf("could not move %s into place: %w", name, err)
	}

	return nil
}
