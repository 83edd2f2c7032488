package observability

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFile is an append-only log file that rolls over to "<path>.1" once
// a write would take it past maxBytes. Only one prior generation is kept.
type RotatingFile struct {
	path     string
	maxBytes int64

	mu     sync.Mutex
	file   *os.File
	size   int64
	closed bool
}

// OpenRotatingFile opens (or creates) the log file at path for appending.
func OpenRotatingFile(path string, maxBytes int64) (*RotatingFile, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("rotating log: max bytes must be positive, got %d", maxBytes)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("rotating log: ensure dir: %w", err)
	}
	r := &RotatingFile{path: path, maxBytes: maxBytes}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the active log file path.
func (r *RotatingFile) Path() string { return r.path }

// Write appends p, rotating first if p would not fit. An entry larger than
// maxBytes is still written whole to a fresh file.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, fs.ErrClosed
	}
	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.size > 0 && r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close releases the file handle. It is safe to call more than once.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *RotatingFile) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("rotating log: open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("rotating log: stat: %w", err)
	}
	r.file = f
	r.size = info.Size()
	return nil
}

// rotate moves the current file to the backup slot. When the move fails the
// current file is reopened in append mode and later writes land there.
func (r *RotatingFile) rotate() error {
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return fmt.Errorf("rotating log: close: %w", err)
	}

	if err := r.moveToBackup(); err != nil {
		if openErr := r.open(); openErr != nil {
			return errors.Join(err, openErr)
		}
		return err
	}
	return r.open()
}

func (r *RotatingFile) moveToBackup() error {
	backup := r.path + ".1"
	if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("rotating log: remove backup: %w", err)
	}
	if err := os.Rename(r.path, backup); err != nil {
		return fmt.Errorf("rotating log: rename: %w", err)
	}
	return nil
}
