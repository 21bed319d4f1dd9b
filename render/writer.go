// Package render materializes artifacts to disk. Its decorators are attached
// by generators and invoked by artifact.Root.Generate.
package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/logger"
)

// WriterMetrics tracks what a Writer produced.
type WriterMetrics struct {
	FilesWritten int   `json:"files_written"`
	DirsCreated  int   `json:"dirs_created"`
	BytesWritten int64 `json:"bytes_written"`
}

// Since returns what was produced after prev was taken.
func (m WriterMetrics) Since(prev WriterMetrics) WriterMetrics {
	return WriterMetrics{
		FilesWritten: m.FilesWritten - prev.FilesWritten,
		DirsCreated:  m.DirsCreated - prev.DirsCreated,
		BytesWritten: m.BytesWritten - prev.BytesWritten,
	}
}

// Writer writes files below a root directory. Safe for concurrent use.
type Writer struct {
	root     string
	formatGo bool
	log      *zap.SugaredLogger

	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithFormatGo enables goimports formatting of .go files. Enabled by default.
func WithFormatGo(enabled bool) WriterOption {
	return func(w *Writer) { w.formatGo = enabled }
}

// WithWriterLogger sets the logger.
func WithWriterLogger(l *zap.SugaredLogger) WriterOption {
	return func(w *Writer) { w.log = l }
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{root: dir, formatGo: true}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.ComponentLogger("loom.render")
	}
	return w
}

// Root returns the output directory.
func (w *Writer) Root() string { return w.root }

// Metrics returns a copy of the counters.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// resolve joins rel onto the root, refusing paths that escape it.
func (w *Writer) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.NewInvalidArgumentError("path %q escapes the output directory", rel)
	}
	return filepath.Join(w.root, clean), nil
}

// EnsureDir creates rel (and parents) below the root.
func (w *Writer) EnsureDir(rel string) error {
	full, err := w.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", rel)
	}
	w.mu.Lock()
	w.metrics.DirsCreated++
	w.mu.Unlock()
	return nil
}

// WriteFile writes data to rel below the root, creating parent directories.
// Go sources are passed through goimports first; when formatting fails the
// unformatted source is left next to the target with an .error suffix.
func (w *Writer) WriteFile(rel string, data []byte) error {
	full, err := w.resolve(rel)
	if err != nil {
		return err
	}

	if w.formatGo && filepath.Ext(full) == ".go" {
		formatted, err := imports.Process(full, data, nil)
		if err != nil {
			debugPath := full + ".error"
			_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
			_ = os.WriteFile(debugPath, data, 0o644)
			err = errors.Wrapf(err, "format %s", rel)
			return errors.WithDetailf(err, "Unformatted source: %s", debugPath)
		}
		data = formatted
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", rel)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", rel)
	}

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.BytesWritten += int64(len(data))
	w.mu.Unlock()

	w.log.Debugw("File written", logger.FieldFile, rel, logger.FieldSize, len(data))
	return nil
}
