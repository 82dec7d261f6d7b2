// Package atomicfile implements the temp-file-then-rename pattern used
// for backup artifacts and config persistence. A File is either promoted
// to its final name with a single rename or its temp path is removed;
// readers never observe a half-written final file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mongokit/mongokit/internal/errdefs"
)

type File struct {
	final   string
	tmp     string
	f       *os.File
	settled bool
}

func tmpName(final string) string {
	return fmt.Sprintf("%s.%s.tmp", final, uuid.NewString()[:8])
}

// Create opens a temp file next to final for writing. Used when the
// archive is streamed byte-by-byte (remote backups, config writes).
func Create(final string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return nil, &errdefs.FileSystemError{Op: "mkdir", Path: filepath.Dir(final), Err: err}
	}

	tmp := tmpName(final)
	f, err := os.Create(tmp)
	if err != nil {
		return nil, &errdefs.FileSystemError{Op: "create temp", Path: tmp, Err: err}
	}
	return &File{final: final, tmp: tmp, f: f}, nil
}

// Stage reserves a temp path without opening it. Used when an external
// tool writes the file itself (local backups with --archive=<path>).
func Stage(final string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return nil, &errdefs.FileSystemError{Op: "mkdir", Path: filepath.Dir(final), Err: err}
	}
	return &File{final: final, tmp: tmpName(final)}, nil
}

// Name returns the temp path the artifact is written to before promotion.
func (a *File) Name() string { return a.tmp }

// Path returns the final path the artifact is promoted to.
func (a *File) Path() string { return a.final }

func (a *File) Write(p []byte) (int, error) {
	return a.f.Write(p)
}

// Commit flushes and closes the temp file (if open) and renames it to
// the final path. Rename is a single syscall on the same filesystem,
// which is what makes the artifact crash-safe.
func (a *File) Commit() error {
	if a.settled {
		return nil
	}
	a.settled = true

	if a.f != nil {
		if err := a.f.Sync(); err != nil {
			a.f.Close()
			os.Remove(a.tmp)
			return &errdefs.FileSystemError{Op: "sync temp", Path: a.tmp, Err: err}
		}
		if err := a.f.Close(); err != nil {
			os.Remove(a.tmp)
			return &errdefs.FileSystemError{Op: "close temp", Path: a.tmp, Err: err}
		}
	}

	if err := os.Rename(a.tmp, a.final); err != nil {
		os.Remove(a.tmp)
		return &errdefs.FileSystemError{Op: "rename", Path: a.final, Err: err}
	}
	return nil
}

// Abort removes the temp artifact. Safe to call on any exit path,
// including after Commit, where it is a no-op. Removal is best-effort;
// the missing-file case is not an error.
func (a *File) Abort() error {
	if a.settled {
		return nil
	}
	a.settled = true

	if a.f != nil {
		_ = a.f.Close()
	}
	if err := os.Remove(a.tmp); err != nil && !os.IsNotExist(err) {
		return &errdefs.FileSystemError{Op: "remove temp", Path: a.tmp, Err: err}
	}
	return nil
}
