package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Writer persists forecast excerpts to a local text file.
// It implements pipeline.Saver.
type Writer struct {
	path       string
	clearStale bool
	logger     *slog.Logger
}

// NewWriter creates a Writer for path. With clearStale set, an empty
// extraction removes the previous excerpt instead of leaving it in place.
func NewWriter(path string, clearStale bool, logger *slog.Logger) *Writer {
	return &Writer{path: path, clearStale: clearStale, logger: logger}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Save writes text verbatim, replacing any previous excerpt, and reports
// whether anything was saved. Empty text leaves the file untouched unless
// the writer clears stale output.
func (w *Writer) Save(_ context.Context, text string) (bool, error) {
	if text == "" {
		if !w.clearStale {
			w.logger.Info("no forecast text to save", "path", w.path)
			return false, nil
		}
		if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("clear stale forecast: %w", err)
		}
		w.logger.Info("no forecast text to save, cleared stale output", "path", w.path)
		return false, nil
	}

	if _, err := WriteAtomic(w.path, strings.NewReader(text)); err != nil {
		return false, fmt.Errorf("save forecast: %w", err)
	}
	w.logger.Info("forecast saved", "path", w.path, "bytes", len(text))
	return true, nil
}

// WriteAtomic copies r into a temporary file beside path and renames it over
// path, so readers never observe a partial file. The result has mode 0644.
func WriteAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		cleanup()
		return n, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		cleanup()
		return n, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return n, err
	}
	return n, nil
}
