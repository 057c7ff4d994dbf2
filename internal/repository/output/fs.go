// Package output persists rendered documents to a directory or a key-value store.
package output

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/pesto/internal/domain"
)

// FileWriter writes outputs as files below a root directory.
type FileWriter struct {
	root string
	perm os.FileMode
}

// NewFileWriter checks that root is an existing directory.
func NewFileWriter(root string) (*FileWriter, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output directory %s: not a directory", root)
	}
	return &FileWriter{root: root, perm: 0o644}, nil
}

// Root returns the output directory.
func (w *FileWriter) Root() string { return w.root }

// Write creates root/name. Intermediate directories are created as needed.
// Names must stay inside root; an existing file fails with
// domain.ErrFileAlreadyExists unless overwrite is set.
func (w *FileWriter) Write(_ context.Context, name string, content []byte, overwrite bool) error {
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
	}
	path := filepath.Join(w.root, name)

	if dir := filepath.Dir(path); dir != w.root {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, w.perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrFileAlreadyExists, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
