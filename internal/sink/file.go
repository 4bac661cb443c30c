package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNoDestination is returned when a File has an empty path.
var ErrNoDestination = errors.New("no output destination")

// DefaultPermission is the mode of files created by a File.
const DefaultPermission os.FileMode = 0644

// File writes documents to a path on disk.
type File struct {
	path string
	perm os.FileMode
}

// Option configures a File.
type Option func(*File)

// WithPermission sets the mode of the created file.
func WithPermission(perm os.FileMode) Option {
	return func(f *File) {
		f.perm = perm
	}
}

// NewFile creates a File sink for path.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path, perm: DefaultPermission}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the destination path.
func (f *File) Path() string {
	return f.path
}

// WriteDocument writes doc to the destination atomically. Parent
// directories are created as needed.
func (f *File) WriteDocument(doc []byte) error {
	if f.path == "" {
		return ErrNoDestination
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(doc); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	if err := tmp.Chmod(f.perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions on %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", f.path, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move document into place: %w", err)
	}
	return nil
}

// Stream opens the destination for progressive writing, truncating any
// existing file. The caller must close the returned writer.
func (f *File) Stream() (io.WriteCloser, error) {
	if f.path == "" {
		return nil, ErrNoDestination
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.perm)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	return out, nil
}
