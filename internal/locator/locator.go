// Package locator provides the filesystem probing shared by the
// configuration store and the path resolver: upward search for a named
// file, binary lookup across install roots and extension probing.
//
// A Locator never writes to the filesystem.
package locator

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DependencyDir is the directory holding installed packages under a root.
const DependencyDir = "node_modules"

// Locator probes a filesystem.
type Locator struct {
	fs afero.Fs
}

// New returns a Locator over fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{fs: fs}
}

// Fs returns the underlying filesystem.
func (l *Locator) Fs() afero.Fs {
	return l.fs
}

// Exists reports whether path names anything.
func (l *Locator) Exists(path string) bool {
	_, err := l.fs.Stat(path)
	return err == nil
}

// IsFile reports whether path names a regular file.
func (l *Locator) IsFile(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path names a directory.
func (l *Locator) IsDir(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && info.IsDir()
}

// FindUp walks from start towards the filesystem root and returns the
// first file matching one of names. Within a directory names are tried
// in order, so the nearest directory always wins over name priority.
func (l *Locator) FindUp(start string, names ...string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for {
		if match, ok := l.FindIn(dir, names...); ok {
			return match, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// FindIn returns the first of names present as a file directly in dir.
func (l *Locator) FindIn(dir string, names ...string) (string, bool) {
	for _, name := range names {
		candidate := filepath.Join(dir, name)
		if l.IsFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ProbeExtensions returns base+ext for the first extension whose file exists.
func (l *Locator) ProbeExtensions(base string, exts []string) (string, bool) {
	for _, ext := range exts {
		candidate := base + ext
		if l.IsFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// InstallDir returns the directory holding the running executable with
// symlinks resolved.
func InstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
