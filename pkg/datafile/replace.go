package datafile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Replace atomically rewrites the file behind f. build receives a fresh
// sibling file to fill; once it returns the file is synced, renamed over the
// original and the directory entry synced.
//
// On success f is closed and must not be used again. If build, the sync or
// the rename fails, the temporary file is removed, f keeps pointing at the
// untouched original and the returned handle is nil. If only the final
// directory sync fails, the rename has already happened: both the new handle
// and the error are returned, and f is closed.
func Replace(f Handle, build func(tmp *File) error) (*File, error) {
	path := f.Path()
	tmpPath := path + ".compact-" + uuid.NewString()

	tmp, err := Create(tmpPath)
	if err != nil {
		return nil, err
	}

	cleanup := func() {
		_ = tmp.file.Close()
		_ = os.Remove(tmpPath)
	}

	if err := build(tmp); err != nil {
		cleanup()
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to sync replacement file: %w", err)
	}

	// Rename is atomic on POSIX; the old handle stays valid until closed
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to rename replacement file: %w", err)
	}

	// The new content is already in place; a close error on the old
	// descriptor cannot lose data
	_ = f.Close()
	tmp.path = path

	if err := syncDir(filepath.Dir(path)); err != nil {
		return tmp, fmt.Errorf("failed to sync directory after rename: %w", err)
	}
	return tmp, nil
}

// syncDir makes a rename inside dir durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
