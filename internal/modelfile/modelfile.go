// Package modelfile handles the files a rename run touches: timestamped backup
// copies, in-place rewrites, and locating the companion diagram file.
package modelfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// DefaultBackupFormat is the time layout appended to backup copies.
const DefaultBackupFormat = ".20060102-150405"

// DefaultDiagramSuffix is appended to the model path to find its diagram.
const DefaultDiagramSuffix = ".diagram"

// Store reads and writes model files through an afero filesystem.
type Store struct {
	fs afero.Fs
}

// New creates a Store. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Fs exposes the underlying filesystem.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// DiagramPath returns the companion diagram path for a model file.
func DiagramPath(modelPath, suffix string) string {
	if suffix == "" {
		suffix = DefaultDiagramSuffix
	}
	return modelPath + suffix
}

// BackupPath returns the backup copy path for path at the given time.
func BackupPath(path string, now time.Time, format string) string {
	if format == "" {
		format = DefaultBackupFormat
	}
	return path + now.Format(format)
}

// Exists reports whether path exists.
func (s *Store) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Read returns the file contents.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return data, nil
}

// Backup copies path to its timestamped backup path. An existing backup is
// never overwritten.
func (s *Store) Backup(path string, now time.Time, format string) (string, error) {
	data, err := s.Read(path)
	if err != nil {
		return "", err
	}
	mode := os.FileMode(0o644)
	if info, err := s.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dest := BackupPath(path, now, format)
	f, err := s.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return "", fmt.Errorf("failed to create backup %q: %w", dest, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write backup %q: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup %q: %w", dest, err)
	}
	return dest, nil
}

// WriteAtomic replaces path with data by writing a sibling temp file and
// renaming it over the original, keeping the original permissions.
func (s *Store) WriteAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := s.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	if err := s.fs.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions on %q: %w", path, err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}
